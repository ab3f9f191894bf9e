// Package subscriptions is the typed façade over the /subscriptions endpoints.
package subscriptions

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmynk/subtrack/internal/api"
	"github.com/mmynk/subtrack/internal/models"
)

const basePath = "/subscriptions"

// ListParams selects one page of subscriptions.
type ListParams struct {
	Page int
	Size int
	Sort Sort

	// Search is sent only when non-empty.
	Search string
}

// Query encodes the params as the API expects them.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.Size))
	q.Set("sort", p.Sort.String())
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

// Lister fetches pages. The list controller and dashboard depend on this
// rather than on Store so they can be driven by fakes.
type Lister interface {
	ListPaged(ctx context.Context, params ListParams) (*models.Page, error)
}

// Store performs the five subscription operations. Errors from the API
// client (api.HTTPError, api.TimeoutError) are returned unmodified and no
// call is retried.
type Store struct {
	client *api.Client
}

// Ensure Store implements Lister
var _ Lister = (*Store)(nil)

// NewStore creates a Store on top of client.
func NewStore(client *api.Client) *Store {
	return &Store{client: client}
}

// ListPaged fetches one page.
func (s *Store) ListPaged(ctx context.Context, params ListParams) (*models.Page, error) {
	if params.Page < 0 {
		return nil, fmt.Errorf("page must be >= 0, got %d", params.Page)
	}
	if params.Size <= 0 {
		return nil, fmt.Errorf("size must be > 0, got %d", params.Size)
	}

	var page models.Page
	if err := s.client.Get(ctx, basePath, params.Query(), &page); err != nil {
		return nil, err
	}

	if page.Content == nil {
		page.Content = []models.Subscription{}
	}
	if page.Size == 0 {
		page.Size = params.Size
	}
	return &page, nil
}

// GetByID fetches one subscription. A missing id yields an error matching
// api.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id models.ID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.client.Get(ctx, itemPath(id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create posts a draft and returns the server's record, including its id.
func (s *Store) Create(ctx context.Context, draft models.Draft) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.client.Post(ctx, basePath, draft, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Update replaces the mutable fields of id.
func (s *Store) Update(ctx context.Context, id models.ID, draft models.Draft) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.client.Put(ctx, itemPath(id), draft, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Delete removes id.
func (s *Store) Delete(ctx context.Context, id models.ID) error {
	return s.client.Delete(ctx, itemPath(id))
}

func itemPath(id models.ID) string {
	return basePath + "/" + url.PathEscape(string(id))
}
