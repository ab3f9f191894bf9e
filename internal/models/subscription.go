package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category groups subscriptions on the dashboard histogram.
type Category string

const (
	CategoryStreaming Category = "STREAMING"
	CategoryCloud     Category = "CLOUD"
	CategorySoftware  Category = "SOFTWARE"
	CategoryUtilities Category = "UTILITIES"
	CategoryOther     Category = "OTHER"
)

// Categories lists every category the API accepts, in display order.
var Categories = []Category{CategoryStreaming, CategoryCloud, CategorySoftware, CategoryUtilities, CategoryOther}

// BillingPeriod is how often a subscription charges.
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "MONTHLY"
	BillingYearly  BillingPeriod = "YEARLY"
)

// BillingPeriods lists every billing period the API accepts.
var BillingPeriods = []BillingPeriod{BillingMonthly, BillingYearly}

// PaymentMethod is the instrument a subscription is charged to.
type PaymentMethod string

const (
	PaymentUPI        PaymentMethod = "UPI"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentNetBanking PaymentMethod = "NET_BANKING"
)

// PaymentMethods lists every payment method the API accepts.
var PaymentMethods = []PaymentMethod{PaymentUPI, PaymentCreditCard, PaymentDebitCard, PaymentNetBanking}

// DateLayout is the wire format of NextBillingDate.
const DateLayout = "2006-01-02"

// ID is a server-assigned identifier. The API may send it as a JSON
// number or string; it is always handled as an opaque string client-side.
type ID string

// UnmarshalJSON accepts both 42 and "42".
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Subscription represents a recurring charge owned by the server.
// It is cached client-side only for the lifetime of the Page it arrived in.
type Subscription struct {
	// ID is assigned by the server on create and never changes.
	// The client must not fabricate one.
	ID ID `json:"id"`

	// Name is the free-text label (e.g., "Netflix").
	Name string `json:"name"`

	// Category is one of Categories. May be empty on legacy records.
	Category Category `json:"category"`

	// Amount is the non-negative charge per billing period, in Currency.
	Amount float64 `json:"amount"`

	// Currency is an ISO-like currency code (e.g., "INR").
	Currency string `json:"currency"`

	// BillingPeriod is kept as the raw wire value; the dashboard
	// tolerates values outside BillingPeriods.
	BillingPeriod BillingPeriod `json:"billingPeriod"`

	// NextBillingDate is a calendar date in DateLayout. Only day
	// granularity is meaningful.
	NextBillingDate string `json:"nextBillingDate"`

	AutoRenew     bool          `json:"autoRenew"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`

	// Notes is optional free text.
	Notes string `json:"notes,omitempty"`
}

// Draft returns the mutable fields of the subscription.
func (s *Subscription) Draft() Draft {
	return Draft{
		Name:            s.Name,
		Category:        s.Category,
		Amount:          s.Amount,
		Currency:        s.Currency,
		BillingPeriod:   s.BillingPeriod,
		NextBillingDate: s.NextBillingDate,
		AutoRenew:       s.AutoRenew,
		PaymentMethod:   s.PaymentMethod,
		Notes:           s.Notes,
	}
}

// FormatAmount renders the amount with its currency, e.g. "499 INR".
func (s *Subscription) FormatAmount() string {
	return fmt.Sprintf("%g %s", s.Amount, s.Currency)
}

// Draft is the request body for creating or updating a subscription.
// It carries every Subscription field except ID.
type Draft struct {
	Name            string        `json:"name"`
	Category        Category      `json:"category"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	BillingPeriod   BillingPeriod `json:"billingPeriod"`
	NextBillingDate string        `json:"nextBillingDate"`
	AutoRenew       bool          `json:"autoRenew"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Notes           string        `json:"notes,omitempty"`
}

// Page is one server-returned batch of subscriptions.
// A new Page fully replaces the previous one; pages are never merged.
type Page struct {
	Content       []Subscription `json:"content"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`

	// Number is the 0-based index of this page.
	Number int `json:"number"`
	Size   int `json:"size"`
}

// EmptyPage returns a page with no content at the given position.
func EmptyPage(number, size int) *Page {
	return &Page{Content: []Subscription{}, Number: number, Size: size}
}
