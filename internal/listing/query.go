package listing

import (
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/subscriptions"
)

// Defaults for a fresh list view.
const (
	DefaultPageSize  = 10
	DefaultSortField = "id"
)

// DefaultSort is the ordering a fresh list view starts with.
var DefaultSort = subscriptions.Sort{Field: DefaultSortField, Direction: subscriptions.Asc}

// Query is the committed list query. Every fetch is issued from exactly
// these values.
type Query struct {
	Page   int
	Size   int
	Sort   subscriptions.Sort
	Search string
}

// Params converts the query into store parameters.
func (q Query) Params() subscriptions.ListParams {
	return subscriptions.ListParams{
		Page:   q.Page,
		Size:   q.Size,
		Sort:   q.Sort,
		Search: q.Search,
	}
}

// State is a point-in-time copy of everything the list view renders.
type State struct {
	Query Query

	// SearchDraft is the text typed so far. It becomes Query.Search only
	// after the debounce window passes.
	SearchDraft string

	// Page is the last successfully fetched page, or an empty page after
	// a failed fetch. Nil before the first fetch resolves.
	Page *models.Page

	// Loading is true while the current fetch is in flight.
	Loading bool

	// Err is the last fetch or mutation failure, cleared by the next
	// successful fetch.
	Err error
}
