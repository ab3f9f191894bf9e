package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mmynk/subtrack/internal/auth"
	"github.com/mmynk/subtrack/internal/dashboard"
	"github.com/mmynk/subtrack/internal/forms"
	"github.com/mmynk/subtrack/internal/listing"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/subscriptions"
	"github.com/mmynk/subtrack/internal/tui"
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *email, err = c.prompt("Email", *email); err != nil {
		return err
	}
	if *password, err = c.prompt("Password", *password); err != nil {
		return err
	}

	creds, err := forms.LoginForm{Email: *email, Password: *password}.Credentials()
	if err != nil {
		return fail(err, forms.FallbackLogin)
	}

	s, err := c.session.Login(ctx, creds)
	if err != nil {
		return fail(err, forms.FallbackLogin)
	}
	c.printf("Signed in as %s\n", s.User.DisplayName())
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	c.session.Logout(ctx)
	c.printf("Signed out\n")
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password, at least 6 characters (prompted when omitted)")
	acceptTerms := fs.Bool("accept-terms", false, "Accept the terms and conditions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *name, err = c.prompt("Name", *name); err != nil {
		return err
	}
	if *email, err = c.prompt("Email", *email); err != nil {
		return err
	}
	if *password, err = c.prompt("Password", *password); err != nil {
		return err
	}

	reg, err := forms.RegisterForm{
		Name:        *name,
		Email:       *email,
		Password:    *password,
		AcceptTerms: *acceptTerms,
	}.Registration()
	if err != nil {
		return fail(err, "Registration failed")
	}

	user, err := c.auth.Register(ctx, reg)
	if err != nil {
		return fail(err, "Registration failed")
	}
	c.printf("Account created for %s. Run `subtrack login` to sign in.\n", user.Email)
	return nil
}

func (c *cli) whoami(ctx context.Context, args []string) error {
	if user := c.session.User(); user != nil {
		c.printf("%s <%s>\n", user.DisplayName(), user.Email)
	} else {
		c.printf("Signed in\n")
	}

	expiry, err := auth.TokenExpiry(c.session.Token())
	if err != nil {
		c.logger.Debug("Token carries no readable expiry", "error", err)
		return nil
	}
	if left := expiry.Sub(c.now()); left > 0 {
		c.printf("Session valid until %s\n", expiry.Local().Format("2006-01-02 15:04"))
	} else {
		c.printf("Session expired at %s\n", expiry.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	page := fs.Int("page", 1, "Page number, starting at 1")
	size := fs.Int("size", c.cfg.List.PageSize, "Subscriptions per page")
	sortFlag := fs.String("sort", c.cfg.List.Sort.String(), "Sort as field,asc|desc")
	search := fs.String("search", "", "Filter by text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sort, err := subscriptions.ParseSort(*sortFlag)
	if err != nil {
		return err
	}
	if *page < 1 {
		return fmt.Errorf("--page must be at least 1")
	}

	result, err := c.subs.ListPaged(ctx, subscriptions.ListParams{
		Page:   *page - 1,
		Size:   *size,
		Sort:   sort,
		Search: strings.TrimSpace(*search),
	})
	if err != nil {
		return fail(err, "Failed to load subscriptions")
	}

	if len(result.Content) == 0 {
		c.printf("No subscriptions found.\n")
		return nil
	}

	today := c.now()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Category", "Amount", "Period", "Next billing", "Status")
	for i := range result.Content {
		sub := &result.Content[i]
		t.Row(
			sub.ID.String(),
			sub.Name,
			string(sub.Category),
			sub.FormatAmount(),
			string(sub.BillingPeriod),
			sub.NextBillingDate,
			dashboard.RenewalStatusOf(sub, today).String(),
		)
	}
	c.printf("%s\n", t.String())
	c.printf("Page %d of %d, %d subscriptions\n", result.Number+1, max(result.TotalPages, 1), result.TotalElements)
	return nil
}

func (c *cli) show(ctx context.Context, args []string) error {
	id, _, err := splitID("show", args)
	if err != nil {
		return err
	}

	sub, err := c.subs.GetByID(ctx, id)
	if err != nil {
		return fail(err, forms.FallbackLoad)
	}

	autoRenew := "no"
	if sub.AutoRenew {
		autoRenew = "yes"
	}
	rows := [][2]string{
		{"ID", sub.ID.String()},
		{"Name", sub.Name},
		{"Category", string(sub.Category)},
		{"Amount", sub.FormatAmount()},
		{"Billing period", string(sub.BillingPeriod)},
		{"Next billing", sub.NextBillingDate},
		{"Status", dashboard.RenewalStatusOf(sub, c.now()).String()},
		{"Auto renew", autoRenew},
		{"Payment method", string(sub.PaymentMethod)},
		{"Notes", sub.Notes},
	}
	for _, r := range rows {
		c.printf("%-16s %s\n", r[0]+":", r[1])
	}
	return nil
}

// subscriptionFlags binds the add/edit flags onto form.
func subscriptionFlags(fs *flag.FlagSet, form *forms.SubscriptionForm) {
	fs.StringVar(&form.Name, "name", form.Name, "Name, e.g. Netflix")
	fs.StringVar(&form.Category, "category", form.Category, "STREAMING, CLOUD, SOFTWARE, UTILITIES or OTHER")
	fs.StringVar(&form.Amount, "amount", form.Amount, "Charge per billing period")
	fs.StringVar(&form.Currency, "currency", form.Currency, "3-letter currency code")
	fs.StringVar(&form.BillingPeriod, "period", form.BillingPeriod, "MONTHLY or YEARLY")
	fs.StringVar(&form.NextBillingDate, "next", form.NextBillingDate, "Next billing date, YYYY-MM-DD")
	fs.BoolVar(&form.AutoRenew, "auto-renew", form.AutoRenew, "Renews automatically")
	fs.StringVar(&form.PaymentMethod, "payment", form.PaymentMethod, "UPI, CREDIT_CARD, DEBIT_CARD or NET_BANKING")
	fs.StringVar(&form.Notes, "notes", form.Notes, "Free text")
}

func (c *cli) add(ctx context.Context, args []string) error {
	form := forms.NewSubscriptionForm()
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	subscriptionFlags(fs, &form)
	if err := fs.Parse(args); err != nil {
		return err
	}
	form.Category = strings.ToUpper(form.Category)
	form.BillingPeriod = strings.ToUpper(form.BillingPeriod)
	form.PaymentMethod = strings.ToUpper(form.PaymentMethod)

	draft, err := form.Draft()
	if err != nil {
		return fail(err, forms.FallbackSave)
	}

	sub, err := c.subs.Create(ctx, draft)
	if err != nil {
		return fail(err, forms.FallbackSave)
	}
	c.printf("Created %s (id %s)\n", sub.Name, sub.ID)
	return nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	id, rest, err := splitID("edit", args)
	if err != nil {
		return err
	}

	current, err := c.subs.GetByID(ctx, id)
	if err != nil {
		return fail(err, forms.FallbackLoad)
	}

	form := forms.FromSubscription(current)
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	subscriptionFlags(fs, &form)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NFlag() == 0 {
		return fmt.Errorf("nothing to change: pass at least one flag, see `subtrack edit -h`")
	}
	form.Category = strings.ToUpper(form.Category)
	form.BillingPeriod = strings.ToUpper(form.BillingPeriod)
	form.PaymentMethod = strings.ToUpper(form.PaymentMethod)

	draft, err := form.Draft()
	if err != nil {
		return fail(err, forms.FallbackSave)
	}

	sub, err := c.subs.Update(ctx, id, draft)
	if err != nil {
		return fail(err, forms.FallbackSave)
	}
	c.printf("Updated %s (id %s)\n", sub.Name, sub.ID)
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	id, rest, err := splitID("delete", args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	if !*yes {
		answer, err := c.prompt(fmt.Sprintf("Delete subscription %s? [y/N]", id), "")
		if err != nil {
			return err
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			c.printf("Cancelled\n")
			return nil
		}
	}

	if err := c.subs.Delete(ctx, id); err != nil {
		return fail(err, forms.FallbackDelete)
	}
	c.printf("Deleted subscription %s\n", id)
	return nil
}

func (c *cli) dashboard(ctx context.Context, args []string) error {
	svc := dashboard.NewService(c.subs, c.cfg.Dashboard.FetchSize, c.logger)
	kpi, err := svc.Load(ctx, c.now())
	if err != nil {
		return fail(err, "Failed to load dashboard")
	}

	c.printf("Subscriptions:     %d\n", kpi.Total)
	c.printf("Monthly spend:     %s\n", kpi.MonthlySpend.StringFixed(2))
	c.printf("Renewing in 7 days: %d\n", kpi.UpcomingCount)
	c.printf("Overdue:           %d\n", kpi.OverdueCount)
	if kpi.Truncated {
		c.printf("(figures cover the first %d subscriptions by renewal date)\n", kpi.Total)
	}

	if len(kpi.CategoryHistogram) > 0 {
		c.printf("\nBy category:\n")
		for _, bucket := range kpi.CategoryHistogram {
			c.printf("  %-14s %s %d\n", bucket.Category, strings.Repeat("█", bucket.Count), bucket.Count)
		}
	}
	return nil
}

func (c *cli) browse(ctx context.Context, args []string) error {
	ctl := listing.NewController(c.subs, listing.Config{
		PageSize:       c.cfg.List.PageSize,
		Sort:           c.cfg.List.Sort,
		SearchDebounce: c.cfg.List.SearchDebounce,
		Logger:         c.logger,
		Metrics:        c.metrics,
	})
	defer ctl.Close()

	return tui.Run(ctl)
}

// splitID takes the leading positional id off args.
func splitID(cmd string, args []string) (models.ID, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("usage: subtrack %s <id> [options]", cmd)
	}
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", nil, fmt.Errorf("usage: subtrack %s <id> [options]", cmd)
	}
	return models.ID(id), args[1:], nil
}
