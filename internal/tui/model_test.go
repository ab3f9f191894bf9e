package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/subtrack/internal/listing"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/subscriptions"
)

type memBackend struct {
	mu      sync.Mutex
	subs    []models.Subscription
	deleted []models.ID
}

func (b *memBackend) ListPaged(ctx context.Context, p subscriptions.ListParams) (*models.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := min(p.Page*p.Size, len(b.subs))
	end := min(start+p.Size, len(b.subs))
	return &models.Page{
		Content:       append([]models.Subscription(nil), b.subs[start:end]...),
		TotalElements: len(b.subs),
		TotalPages:    (len(b.subs) + p.Size - 1) / p.Size,
		Number:        p.Page,
		Size:          p.Size,
	}, nil
}

func (b *memBackend) Create(ctx context.Context, d models.Draft) (*models.Subscription, error) {
	return nil, fmt.Errorf("not implemented")
}

func (b *memBackend) Update(ctx context.Context, id models.ID, d models.Draft) (*models.Subscription, error) {
	return nil, fmt.Errorf("not implemented")
}

func (b *memBackend) Delete(ctx context.Context, id models.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	for i, s := range b.subs {
		if s.ID == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	return nil
}

func newTestModel(t *testing.T, n int) (Model, *listing.Controller, *memBackend) {
	t.Helper()
	backend := &memBackend{}
	for i := 0; i < n; i++ {
		backend.subs = append(backend.subs, models.Subscription{
			ID:              models.ID(fmt.Sprint(i + 1)),
			Name:            fmt.Sprintf("Service %02d", i+1),
			Category:        models.CategoryStreaming,
			Amount:          100,
			Currency:        "INR",
			BillingPeriod:   models.BillingMonthly,
			NextBillingDate: "2025-06-12",
		})
	}
	ctl := listing.NewController(backend, listing.Config{
		SearchDebounce: time.Hour,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(ctl.Close)

	m := New(ctl)
	m.now = func() time.Time { return time.Date(2025, time.June, 10, 9, 0, 0, 0, time.Local) }
	return m, ctl, backend
}

// settle applies the controller's latest state the way the program would.
func settle(t *testing.T, m Model, ctl *listing.Controller) Model {
	t.Helper()
	ctl.Wait()
	next, _ := m.Update(stateMsg(ctl.Snapshot()))
	return next.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_InitialLoadRenders(t *testing.T) {
	m, ctl, _ := newTestModel(t, 12)
	m.Init()
	m = settle(t, m, ctl)

	view := m.View()
	for _, want := range []string{"Service 01", "Service 10", "Page 1/2", "12 total", "Renewing soon"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Service 11") {
		t.Error("second page rows should not be shown")
	}
}

func TestModel_Paging(t *testing.T) {
	m, ctl, _ := newTestModel(t, 12)
	m.Init()
	m = settle(t, m, ctl)

	m = press(m, "right")
	m = settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Page; got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "Service 11") {
		t.Error("expected second page rows")
	}

	// Already on the last page.
	m = press(m, "right")
	m = settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Page; got != 1 {
		t.Errorf("page = %d, want to stay on 1", got)
	}

	m = press(m, "left")
	settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Page; got != 0 {
		t.Errorf("page = %d, want 0", got)
	}
}

func TestModel_SizeAndSortKeys(t *testing.T) {
	m, ctl, _ := newTestModel(t, 3)
	m.Init()
	m = settle(t, m, ctl)

	m = press(m, "+")
	m = settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Size; got != 25 {
		t.Errorf("size after + = %d, want 25", got)
	}
	m = press(m, "-", "-")
	m = settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Size; got != 5 {
		t.Errorf("size after - - = %d, want 5", got)
	}

	m = press(m, "3")
	m = settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Sort.String(); got != "amount,asc" {
		t.Errorf("sort = %s, want amount,asc", got)
	}
	m = press(m, "3")
	settle(t, m, ctl)
	if got := ctl.Snapshot().Query.Sort.String(); got != "amount,desc" {
		t.Errorf("sort = %s, want amount,desc", got)
	}
}

func TestModel_SearchMode(t *testing.T) {
	m, ctl, _ := newTestModel(t, 3)

	m = press(m, "/", "n", "e", "x", "backspace", "t")
	if !m.searching || m.search != "net" {
		t.Fatalf("searching=%v search=%q", m.searching, m.search)
	}
	if got := ctl.Snapshot(); got.SearchDraft != "net" || got.Query.Search != "" {
		t.Errorf("draft should be pending, state = %+v", got)
	}
	// q is text while searching.
	m = press(m, "q")
	if m.search != "netq" {
		t.Errorf("search = %q, want netq", m.search)
	}

	m = press(m, "backspace", "enter")
	ctl.Wait()
	if m.searching {
		t.Error("enter should leave search mode")
	}
	if got := ctl.Snapshot().Query.Search; got != "net" {
		t.Errorf("committed search = %q, want net", got)
	}
}

func TestModel_DeleteConfirmation(t *testing.T) {
	m, ctl, backend := newTestModel(t, 3)
	m.Init()
	m = settle(t, m, ctl)

	m = press(m, "down", "d")
	if m.confirm == nil || m.confirm.ID != "2" {
		t.Fatalf("expected confirmation for id 2, got %+v", m.confirm)
	}
	if !strings.Contains(m.View(), "Delete Service 02? (y/n)") {
		t.Error("confirmation prompt not shown")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	msg := cmd()
	next, _ = m.Update(msg)
	m = settle(t, next.(Model), ctl)

	if len(backend.deleted) != 1 || backend.deleted[0] != "2" {
		t.Errorf("deleted = %v, want [2]", backend.deleted)
	}
	if !strings.Contains(m.View(), "Deleted Service 02") {
		t.Errorf("status missing:\n%s", m.View())
	}
}

func TestModel_DeleteCancelled(t *testing.T) {
	m, ctl, backend := newTestModel(t, 2)
	m.Init()
	m = settle(t, m, ctl)

	m = press(m, "d", "n")
	if m.confirm != nil {
		t.Error("confirmation should be cleared")
	}
	if len(backend.deleted) != 0 {
		t.Error("nothing should be deleted")
	}
}

func TestStepSize(t *testing.T) {
	tests := []struct {
		current, dir, want int
	}{
		{10, 1, 25},
		{10, -1, 5},
		{5, -1, 5},
		{50, 1, 50},
		{7, 1, 10},
		{7, -1, 5},
		{100, -1, 50},
	}
	for _, tt := range tests {
		if got := stepSize(tt.current, tt.dir); got != tt.want {
			t.Errorf("stepSize(%d, %d) = %d, want %d", tt.current, tt.dir, got, tt.want)
		}
	}
}

func TestCell(t *testing.T) {
	if got := cell("Netflix", 10); got != "Netflix   " {
		t.Errorf("cell pad = %q", got)
	}
	if got := cell("A very long subscription", 8); got != "A very …" {
		t.Errorf("cell truncate = %q", got)
	}
}
