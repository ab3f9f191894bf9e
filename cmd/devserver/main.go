package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/subtrack/internal/config"
	"github.com/mmynk/subtrack/internal/fakeapi"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/pkg/logging"
)

const (
	demoName     = "Demo User"
	demoEmail    = "demo@subtrack.dev"
	demoPassword = "demo1234"
)

func main() {
	logging.Setup()

	cfg, err := config.LoadDevServer()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	server := fakeapi.New(cfg.JWTSecret)
	if cfg.Seed {
		if err := seed(server, time.Now()); err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("Demo account ready", "email", demoEmail, "password", demoPassword)
	}

	// Wrap with h2c so HTTP/2 clients work without TLS
	h2cHandler := h2c.NewHandler(corsMiddleware(server.Handler()), &http2.Server{})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("Development API starting", "address", cfg.Addr, "url", fmt.Sprintf("http://localhost%s/api", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// seed creates the demo account with renewals spread around today.
func seed(server *fakeapi.Server, now time.Time) error {
	if err := server.AddUser(demoName, demoEmail, demoPassword); err != nil {
		return err
	}

	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format(models.DateLayout)
	}
	server.Seed(demoEmail,
		models.Draft{Name: "Netflix", Category: models.CategoryStreaming, Amount: 649, Currency: "INR", BillingPeriod: models.BillingMonthly, NextBillingDate: day(3), AutoRenew: true, PaymentMethod: models.PaymentCreditCard},
		models.Draft{Name: "Spotify", Category: models.CategoryStreaming, Amount: 119, Currency: "INR", BillingPeriod: models.BillingMonthly, NextBillingDate: day(12), AutoRenew: true, PaymentMethod: models.PaymentUPI},
		models.Draft{Name: "Google One", Category: models.CategoryCloud, Amount: 1300, Currency: "INR", BillingPeriod: models.BillingYearly, NextBillingDate: day(-2), AutoRenew: true, PaymentMethod: models.PaymentUPI},
		models.Draft{Name: "iCloud+", Category: models.CategoryCloud, Amount: 75, Currency: "INR", BillingPeriod: models.BillingMonthly, NextBillingDate: day(6), AutoRenew: true, PaymentMethod: models.PaymentDebitCard},
		models.Draft{Name: "JetBrains", Category: models.CategorySoftware, Amount: 249, Currency: "USD", BillingPeriod: models.BillingYearly, NextBillingDate: day(140), AutoRenew: false, PaymentMethod: models.PaymentCreditCard, Notes: "All products pack"},
		models.Draft{Name: "Broadband", Category: models.CategoryUtilities, Amount: 999, Currency: "INR", BillingPeriod: models.BillingMonthly, NextBillingDate: day(20), AutoRenew: true, PaymentMethod: models.PaymentNetBanking},
		models.Draft{Name: "Mobile plan", Category: models.CategoryUtilities, Amount: 299, Currency: "INR", BillingPeriod: models.BillingMonthly, NextBillingDate: day(0), AutoRenew: true, PaymentMethod: models.PaymentUPI},
		models.Draft{Name: "Disney+ Hotstar", Category: models.CategoryStreaming, Amount: 1499, Currency: "INR", BillingPeriod: models.BillingYearly, NextBillingDate: day(45), AutoRenew: false, PaymentMethod: models.PaymentUPI},
		models.Draft{Name: "Notion", Category: models.CategorySoftware, Amount: 8, Currency: "USD", BillingPeriod: models.BillingMonthly, NextBillingDate: day(-10), AutoRenew: true, PaymentMethod: models.PaymentCreditCard},
		models.Draft{Name: "Gym", Category: models.CategoryOther, Amount: 1500, Currency: "INR", BillingPeriod: models.BillingMonthly, NextBillingDate: day(9), AutoRenew: true, PaymentMethod: models.PaymentUPI},
		models.Draft{Name: "Dropbox", Category: models.CategoryCloud, Amount: 11.99, Currency: "USD", BillingPeriod: models.BillingMonthly, NextBillingDate: day(27), AutoRenew: true, PaymentMethod: models.PaymentCreditCard},
		models.Draft{Name: "Newspaper", Category: "", Amount: 350, Currency: "INR", BillingPeriod: models.BillingMonthly, AutoRenew: false, PaymentMethod: models.PaymentUPI},
	)
	return nil
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
