// Package tui is the interactive subscription list.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmynk/subtrack/internal/dashboard"
	"github.com/mmynk/subtrack/internal/forms"
	"github.com/mmynk/subtrack/internal/listing"
	"github.com/mmynk/subtrack/internal/models"
	"github.com/mmynk/subtrack/internal/subscriptions"
)

// column is a sortable table column bound to a number key.
type column struct {
	title string
	field string
	width int
}

var columns = []column{
	{title: "Name", field: "name", width: 22},
	{title: "Category", field: "category", width: 11},
	{title: "Amount", field: "amount", width: 13},
	{title: "Period", field: "billingPeriod", width: 8},
	{title: "Next billing", field: "nextBillingDate", width: 13},
}

// pageSizes are the sizes +/- step through.
var pageSizes = []int{5, 10, 25, 50}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cdd6f4"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1e1e2e")).Background(lipgloss.Color("#89b4fa"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	soonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
)

// deletedMsg reports the outcome of a confirmed delete.
type deletedMsg struct {
	name string
	err  error
}

// Model is the Bubble Tea model for the list view.
type Model struct {
	ctl   *listing.Controller
	feed  *feed
	state listing.State
	now   func() time.Time

	cursor    int
	searching bool
	search    string
	confirm   *models.Subscription
	status    string
}

// New creates the list view over ctl and subscribes to its changes.
func New(ctl *listing.Controller) Model {
	f := newFeed()
	ctl.OnChange(f.push)
	return Model{
		ctl:   ctl,
		feed:  f,
		state: ctl.Snapshot(),
		now:   time.Now,
	}
}

// Run shows the list view until the user quits.
func Run(ctl *listing.Controller) error {
	p := tea.NewProgram(New(ctl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run list view: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	m.ctl.Refresh()
	return m.feed.next()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = listing.State(msg)
		m.clampCursor()
		return m, m.feed.next()

	case deletedMsg:
		if msg.err != nil {
			m.status = forms.Message(msg.err, forms.FallbackDelete)
		} else {
			m.status = fmt.Sprintf("Deleted %s", msg.name)
		}
		return m, nil

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.ctl.PrevPage()
	case "right", "l":
		m.ctl.NextPage()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case "+", "=":
		m.ctl.SetSize(stepSize(m.ctl.Snapshot().Query.Size, 1))
	case "-", "_":
		m.ctl.SetSize(stepSize(m.ctl.Snapshot().Query.Size, -1))
	case "1", "2", "3", "4", "5":
		m.ctl.ToggleSort(columns[key[0]-'1'].field)
	case "/":
		m.searching = true
		m.search = m.state.SearchDraft
	case "r":
		m.status = ""
		m.ctl.Refresh()
	case "d":
		if sub := m.selected(); sub != nil {
			m.confirm = sub
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
		m.ctl.CommitSearch()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		return m, nil
	case tea.KeyBackspace:
		if r := []rune(m.search); len(r) > 0 {
			m.search = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.search += string(msg.Runes)
	default:
		return m, nil
	}
	m.ctl.TypeSearch(m.search)
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sub := m.confirm
	m.confirm = nil
	switch msg.String() {
	case "y", "Y":
		ctl := m.ctl
		return m, func() tea.Msg {
			err := ctl.Delete(context.Background(), sub.ID)
			return deletedMsg{name: sub.Name, err: err}
		}
	case "ctrl+c":
		return m, tea.Quit
	}
	m.status = "Delete cancelled"
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	q := m.state.Query
	b.WriteString(titleStyle.Render("Subscriptions"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  sort %s · %d per page", q.Sort, q.Size)))
	if q.Search != "" {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" · search %q", q.Search)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	rows := m.rows()
	switch {
	case m.state.Page == nil && m.state.Loading:
		b.WriteString(mutedStyle.Render("Loading…"))
		b.WriteString("\n")
	case len(rows) == 0:
		b.WriteString(mutedStyle.Render("No subscriptions found."))
		b.WriteString("\n")
	}
	today := m.now()
	for i := range rows {
		b.WriteString(m.renderRow(&rows[i], i == m.cursor, today))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	b.WriteString("\n")

	switch {
	case m.confirm != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Delete %s? (y/n)", m.confirm.Name)))
	case m.searching:
		b.WriteString(fmt.Sprintf("Search: %s▏", m.search))
	case m.state.Err != nil:
		b.WriteString(errorStyle.Render(forms.Message(m.state.Err, "Failed to load subscriptions")))
	case m.status != "":
		b.WriteString(mutedStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("←/→ page  +/- size  1-5 sort  / search  r refresh  d delete  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderHeader() string {
	sort := m.state.Query.Sort
	cells := make([]string, 0, len(columns)+1)
	for i, col := range columns {
		title := fmt.Sprintf("%d %s", i+1, col.title)
		if col.field == sort.Field {
			if sort.Direction == subscriptions.Desc {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		cells = append(cells, cell(title, col.width))
	}
	cells = append(cells, "Status")
	return headerStyle.Render(strings.Join(cells, " "))
}

func (m Model) renderRow(sub *models.Subscription, selected bool, today time.Time) string {
	values := []string{
		sub.Name,
		string(sub.Category),
		sub.FormatAmount(),
		string(sub.BillingPeriod),
		sub.NextBillingDate,
	}
	cells := make([]string, 0, len(values)+1)
	for i, v := range values {
		cells = append(cells, cell(v, columns[i].width))
	}

	status := dashboard.RenewalStatusOf(sub, today)
	line := strings.Join(cells, " ") + " "
	if selected {
		return selectedStyle.Render(line + status.String())
	}
	switch status {
	case models.RenewalOverdue:
		return line + overdueStyle.Render(status.String())
	case models.RenewalSoon:
		return line + soonStyle.Render(status.String())
	default:
		return line + mutedStyle.Render(status.String())
	}
}

func (m Model) renderFooter() string {
	page := m.state.Page
	if page == nil {
		return mutedStyle.Render("Page -")
	}
	pages := max(page.TotalPages, 1)
	footer := fmt.Sprintf("Page %d/%d · %d total", page.Number+1, pages, page.TotalElements)
	if m.state.Loading {
		footer += " · loading…"
	}
	return mutedStyle.Render(footer)
}

func (m Model) rows() []models.Subscription {
	if m.state.Page == nil {
		return nil
	}
	return m.state.Page.Content
}

func (m Model) selected() *models.Subscription {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	sub := rows[m.cursor]
	return &sub
}

func (m *Model) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// stepSize moves to the neighbouring entry of pageSizes.
func stepSize(current, dir int) int {
	i := slices.Index(pageSizes, current)
	if i < 0 {
		// Custom size: snap to the nearest preset in the requested direction.
		for j, s := range pageSizes {
			if s > current {
				if dir > 0 {
					return s
				}
				return pageSizes[max(j-1, 0)]
			}
		}
		return pageSizes[len(pageSizes)-1]
	}
	i = min(max(i+dir, 0), len(pageSizes)-1)
	return pageSizes[i]
}

// cell pads or truncates s to width display columns.
func cell(s string, width int) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}
