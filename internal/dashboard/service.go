package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/subscriptions"
)

// DefaultFetchSize is how many subscriptions one dashboard load pulls.
const DefaultFetchSize = 200

// fetchSort puts the soonest renewals first so the most relevant records
// survive when the set is larger than the fetch size.
var fetchSort = subscriptions.Sort{Field: "nextBillingDate", Direction: subscriptions.Asc}

// Service loads subscriptions and aggregates them.
type Service struct {
	lister    subscriptions.Lister
	fetchSize int
	logger    *slog.Logger
}

// NewService creates a dashboard service. fetchSize <= 0 uses DefaultFetchSize.
func NewService(lister subscriptions.Lister, fetchSize int, logger *slog.Logger) *Service {
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{lister: lister, fetchSize: fetchSize, logger: logger}
}

// Load fetches a single bulk page and aggregates it as of today.
//
// The fetched page is treated as the whole set. When the server reports
// more records than were fetched, the snapshot is marked Truncated and
// its figures cover only the fetched subset.
func (s *Service) Load(ctx context.Context, today time.Time) (models.KPISnapshot, error) {
	page, err := s.lister.ListPaged(ctx, subscriptions.ListParams{
		Page: 0,
		Size: s.fetchSize,
		Sort: fetchSort,
	})
	if err != nil {
		return models.KPISnapshot{}, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	snapshot := Aggregate(page.Content, today)
	if page.TotalElements > len(page.Content) {
		snapshot.Truncated = true
		s.logger.Warn("Dashboard covers a subset of subscriptions",
			"fetched", len(page.Content),
			"total", page.TotalElements,
		)
	}
	return snapshot, nil
}
