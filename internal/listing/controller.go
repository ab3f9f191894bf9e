// Package listing drives the paged, sorted, searchable subscription list.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/subtrack/internal/forms"
	"github.com/mmynk/subtrack/internal/metrics"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/subscriptions"
)

// DefaultSearchDebounce is the quiet period before typed search text is committed.
const DefaultSearchDebounce = 450 * time.Millisecond

// Backend is the subset of subscriptions.Store the controller uses.
type Backend interface {
	subscriptions.Lister
	Create(ctx context.Context, draft models.Draft) (*models.Subscription, error)
	Update(ctx context.Context, id models.ID, draft models.Draft) (*models.Subscription, error)
	Delete(ctx context.Context, id models.ID) error
}

// Ensure Store implements Backend
var _ Backend = (*subscriptions.Store)(nil)

// Config tunes a Controller. Zero values select the defaults.
type Config struct {
	PageSize       int
	Sort           subscriptions.Sort
	SearchDebounce time.Duration
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
}

// Controller owns the list query and the page fetched for it.
//
// All state transitions are serialized by one mutex. Fetches run on their
// own goroutines and re-enter through that mutex; each carries a
// generation number and only the newest generation may write state.
type Controller struct {
	mu      sync.Mutex
	backend Backend
	state   State
	gen     uint64
	cancel  context.CancelFunc
	closed  bool

	// notifyMu keeps OnChange deliveries in transition order.
	notifyMu sync.Mutex
	onChange func(State)

	search   *Debouncer
	inflight sync.WaitGroup
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewController creates a controller. It does not fetch until Refresh or
// a query change.
func NewController(backend Backend, cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Sort.Field == "" {
		cfg.Sort = DefaultSort
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = DefaultSearchDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Controller{
		backend: backend,
		state: State{
			Query: Query{Page: 0, Size: cfg.PageSize, Sort: cfg.Sort},
		},
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	c.search = NewDebouncer(cfg.SearchDebounce, c.commitSearch)
	return c
}

// OnChange registers fn to receive a copy of the state after every
// transition. fn runs outside the state lock and may call Snapshot, but
// must not call the controller's mutating methods.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Refresh re-fetches the current query.
func (c *Controller) Refresh() {
	c.update(func() bool {
		c.fetchLocked()
		return true
	})
}

// SetPage moves to page n (0-based).
func (c *Controller) SetPage(n int) {
	if n < 0 {
		n = 0
	}
	c.update(func() bool {
		c.state.Query.Page = n
		c.fetchLocked()
		return true
	})
}

// NextPage moves forward one page when the current page is not the last.
func (c *Controller) NextPage() {
	c.update(func() bool {
		page := c.state.Page
		if page != nil && c.state.Query.Page+1 >= page.TotalPages {
			return false
		}
		c.state.Query.Page++
		c.fetchLocked()
		return true
	})
}

// PrevPage moves back one page.
func (c *Controller) PrevPage() {
	c.update(func() bool {
		if c.state.Query.Page == 0 {
			return false
		}
		c.state.Query.Page--
		c.fetchLocked()
		return true
	})
}

// SetSize changes the page size and nothing else.
func (c *Controller) SetSize(n int) {
	if n <= 0 {
		return
	}
	c.update(func() bool {
		c.state.Query.Size = n
		c.fetchLocked()
		return true
	})
}

// SetSort replaces the ordering and returns to the first page.
func (c *Controller) SetSort(s subscriptions.Sort) {
	c.update(func() bool {
		c.state.Query.Sort = s
		c.state.Query.Page = 0
		c.fetchLocked()
		return true
	})
}

// ToggleSort flips the direction when field is already the sort field,
// otherwise sorts ascending by field. Either way the first page is shown.
func (c *Controller) ToggleSort(field string) {
	c.update(func() bool {
		cur := c.state.Query.Sort
		if cur.Field == field {
			c.state.Query.Sort = subscriptions.Sort{Field: field, Direction: cur.Direction.Flip()}
		} else {
			c.state.Query.Sort = subscriptions.Sort{Field: field, Direction: subscriptions.Asc}
		}
		c.state.Query.Page = 0
		c.fetchLocked()
		return true
	})
}

// TypeSearch records text as the search draft and restarts the debounce
// window. Nothing is fetched until the window passes.
func (c *Controller) TypeSearch(text string) {
	c.update(func() bool {
		if c.closed {
			return false
		}
		c.state.SearchDraft = text
		return true
	})
	c.search.Trigger()
}

// CommitSearch commits the draft now instead of waiting for the window.
func (c *Controller) CommitSearch() {
	c.search.Cancel()
	c.commitSearch()
}

func (c *Controller) commitSearch() {
	c.update(func() bool {
		if c.closed || c.state.SearchDraft == c.state.Query.Search {
			return false
		}
		c.state.Query.Search = c.state.SearchDraft
		c.state.Query.Page = 0
		c.fetchLocked()
		return true
	})
}

// Create validates and creates a subscription, then reloads the first page.
func (c *Controller) Create(ctx context.Context, draft models.Draft) (*models.Subscription, error) {
	if err := forms.ValidateDraft(draft); err != nil {
		c.setErr(err)
		return nil, err
	}
	sub, err := c.backend.Create(ctx, draft)
	if err != nil {
		c.setErr(err)
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	c.logger.Info("Subscription created", "id", sub.ID)
	c.reloadFirstPage()
	return sub, nil
}

// Update validates and saves a subscription, then reloads the first page.
func (c *Controller) Update(ctx context.Context, id models.ID, draft models.Draft) (*models.Subscription, error) {
	if err := forms.ValidateDraft(draft); err != nil {
		c.setErr(err)
		return nil, err
	}
	sub, err := c.backend.Update(ctx, id, draft)
	if err != nil {
		c.setErr(err)
		return nil, fmt.Errorf("failed to update subscription %s: %w", id, err)
	}
	c.logger.Info("Subscription updated", "id", id)
	c.reloadFirstPage()
	return sub, nil
}

// Delete removes a subscription, then reloads the first page.
func (c *Controller) Delete(ctx context.Context, id models.ID) error {
	if err := c.backend.Delete(ctx, id); err != nil {
		c.setErr(err)
		return fmt.Errorf("failed to delete subscription %s: %w", id, err)
	}
	c.logger.Info("Subscription deleted", "id", id)
	c.reloadFirstPage()
	return nil
}

// The mutated record's position under the active sort and filter is not
// known locally, so the view always starts over from page 0.
func (c *Controller) reloadFirstPage() {
	c.update(func() bool {
		c.state.Query.Page = 0
		c.fetchLocked()
		return true
	})
}

func (c *Controller) setErr(err error) {
	c.update(func() bool {
		c.state.Err = err
		return true
	})
}

// Wait blocks until every started fetch has settled.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Close stops the search debouncer and cancels the in-flight fetch.
// Later calls are no-ops.
func (c *Controller) Close() {
	c.search.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state.Loading = false
}

// update applies fn under the state lock and, if fn reports a change,
// hands the new state to the OnChange hook. notifyMu is always taken
// before mu, and mu is released before the hook runs.
func (c *Controller) update(fn func() bool) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	s := c.state
	hook := c.onChange
	c.mu.Unlock()

	if hook != nil {
		hook(s)
	}
}

// fetchLocked starts a fetch for the committed query, superseding any
// fetch still in flight. c.mu must be held.
func (c *Controller) fetchLocked() {
	if c.closed {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	params := c.state.Query.Params()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state.Loading = true

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer cancel()

		page, err := c.backend.ListPaged(ctx, params)
		c.resolve(gen, params, page, err)
	}()
}

func (c *Controller) resolve(gen uint64, params subscriptions.ListParams, page *models.Page, err error) {
	c.update(func() bool {
		if gen != c.gen {
			if c.closed {
				return false
			}
			c.logger.Debug("Discarding superseded list response", "page", params.Page, "generation", gen)
			if c.metrics != nil {
				c.metrics.StaleResponses.Inc()
			}
			return false
		}

		c.cancel = nil
		c.state.Loading = false
		if err != nil {
			c.logger.Warn("Failed to load subscriptions", "page", params.Page, "error", err)
			c.state.Page = models.EmptyPage(params.Page, params.Size)
			c.state.Err = err
			return true
		}
		c.state.Page = page
		c.state.Err = nil
		return true
	})
}
