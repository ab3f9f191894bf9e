package forms

import (
	"strconv"
	"strings"

	"github.com/mmynk/subtrack/internal/models"
)

var subscriptionMessages = messages{
	"Name.required":            "Name is required",
	"Amount.required":          "Amount is required",
	"Amount":                   "Amount must be a non-negative number",
	"Currency":                 "Currency must be a 3-letter code",
	"Category":                 "Choose a valid category",
	"BillingPeriod":            "Choose a valid billing period",
	"PaymentMethod":            "Choose a valid payment method",
	"NextBillingDate.datetime": "Next billing date must be YYYY-MM-DD",
}

// SubscriptionForm is the add/edit subscription form. Amount is kept as
// typed so partial input can be validated.
type SubscriptionForm struct {
	Name            string `validate:"required"`
	Category        string `validate:"required,oneof=STREAMING CLOUD SOFTWARE UTILITIES OTHER"`
	Amount          string `validate:"required,amount"`
	Currency        string `validate:"required,len=3,alpha"`
	BillingPeriod   string `validate:"required,oneof=MONTHLY YEARLY"`
	NextBillingDate string `validate:"omitempty,datetime=2006-01-02"`
	AutoRenew       bool
	PaymentMethod   string `validate:"required,oneof=UPI CREDIT_CARD DEBIT_CARD NET_BANKING"`
	Notes           string
}

// NewSubscriptionForm returns an empty form with the add-dialog defaults.
func NewSubscriptionForm() SubscriptionForm {
	return SubscriptionForm{
		Category:      string(models.CategoryStreaming),
		Currency:      "INR",
		BillingPeriod: string(models.BillingMonthly),
		AutoRenew:     true,
		PaymentMethod: string(models.PaymentUPI),
	}
}

// FromSubscription prefills the form for editing. Empty fields on the
// record fall back to the add-dialog defaults.
func FromSubscription(sub *models.Subscription) SubscriptionForm {
	f := NewSubscriptionForm()
	f.Name = sub.Name
	f.Amount = strconv.FormatFloat(sub.Amount, 'f', -1, 64)
	f.NextBillingDate = sub.NextBillingDate
	f.AutoRenew = sub.AutoRenew
	f.Notes = sub.Notes
	if sub.Category != "" {
		f.Category = string(sub.Category)
	}
	if sub.Currency != "" {
		f.Currency = sub.Currency
	}
	if sub.BillingPeriod != "" {
		f.BillingPeriod = string(sub.BillingPeriod)
	}
	if sub.PaymentMethod != "" {
		f.PaymentMethod = string(sub.PaymentMethod)
	}
	return f
}

// Draft validates the form and returns the request body.
func (f SubscriptionForm) Draft() (models.Draft, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Amount = strings.TrimSpace(f.Amount)
	f.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))
	f.NextBillingDate = strings.TrimSpace(f.NextBillingDate)

	if err := check(f, subscriptionMessages); err != nil {
		return models.Draft{}, err
	}

	amount, _ := strconv.ParseFloat(f.Amount, 64)
	return models.Draft{
		Name:            f.Name,
		Category:        models.Category(f.Category),
		Amount:          amount,
		Currency:        f.Currency,
		BillingPeriod:   models.BillingPeriod(f.BillingPeriod),
		NextBillingDate: f.NextBillingDate,
		AutoRenew:       f.AutoRenew,
		PaymentMethod:   models.PaymentMethod(f.PaymentMethod),
		Notes:           strings.TrimSpace(f.Notes),
	}, nil
}

// ValidateDraft checks a draft built outside a form, such as one passed
// straight to the list controller.
func ValidateDraft(d models.Draft) error {
	f := SubscriptionForm{
		Name:            d.Name,
		Category:        string(d.Category),
		Amount:          strconv.FormatFloat(d.Amount, 'f', -1, 64),
		Currency:        d.Currency,
		BillingPeriod:   string(d.BillingPeriod),
		NextBillingDate: d.NextBillingDate,
		AutoRenew:       d.AutoRenew,
		PaymentMethod:   string(d.PaymentMethod),
		Notes:           d.Notes,
	}
	_, err := f.Draft()
	return err
}
