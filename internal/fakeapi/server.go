// Package fakeapi is an in-memory implementation of the subscription REST
// API. It backs the client's tests and the local development server.
package fakeapi

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mmynk/subtrack/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
	tokenDuration   = 24 * time.Hour
)

// RecordedRequest is what the server saw of one request.
type RecordedRequest struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization []string
}

type record struct {
	owner string
	sub   models.Subscription
}

// Server holds users and subscriptions in memory.
type Server struct {
	mu       sync.Mutex
	users    map[string]*user
	records  []*record
	requests []RecordedRequest
	listHook func(r *http.Request)

	tokens  *tokenManager
	handler http.Handler
}

// New creates an empty server that signs tokens with secret.
func New(secret string) *Server {
	s := &Server{
		users:  make(map[string]*user),
		tokens: newTokenManager(secret, tokenDuration),
	}

	r := mux.NewRouter()
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)

	subs := apiRouter.PathPrefix("/subscriptions").Subrouter()
	subs.Use(s.requireAuth)
	subs.HandleFunc("", s.handleList).Methods(http.MethodGet)
	subs.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	subs.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	subs.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPut)
	subs.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})

	s.handler = logging(s.record(r))
	return s
}

// Handler returns the HTTP handler serving /api.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// AddUser registers an account directly.
func (s *Server) AddUser(name, email, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.register(name, email, password)
	return err
}

// IssueToken returns a valid token for email without a login round trip.
func (s *Server) IssueToken(email string) (string, error) {
	return s.tokens.generate(email)
}

// Seed stores subscriptions for owner and returns them with assigned ids.
func (s *Server) Seed(owner string, drafts ...models.Draft) []models.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Subscription, 0, len(drafts))
	for _, d := range drafts {
		rec := s.insert(owner, d)
		out = append(out, rec.sub)
	}
	return out
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// SetListHook installs fn to run before each list request is served. Tests
// use it to delay or block specific requests.
func (s *Server) SetListHook(fn func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listHook = fn
}

// insert stores a new record. Callers must hold s.mu.
func (s *Server) insert(owner string, d models.Draft) *record {
	rec := &record{
		owner: strings.ToLower(owner),
		sub: models.Subscription{
			ID:              models.ID(uuid.New().String()),
			Name:            d.Name,
			Category:        d.Category,
			Amount:          d.Amount,
			Currency:        d.Currency,
			BillingPeriod:   d.BillingPeriod,
			NextBillingDate: d.NextBillingDate,
			AutoRenew:       d.AutoRenew,
			PaymentMethod:   d.PaymentMethod,
			Notes:           d.Notes,
		},
	}
	s.records = append(s.records, rec)
	return rec
}

// find returns the caller's record with id. Callers must hold s.mu.
func (s *Server) find(owner string, id models.ID) (int, *record) {
	owner = strings.ToLower(owner)
	for i, rec := range s.records {
		if rec.owner == owner && rec.sub.ID == id {
			return i, rec
		}
	}
	return -1, nil
}

type authRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	u, err := s.authenticate(req.Email, req.Password)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	s.respondWithToken(w, http.StatusOK, u)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	s.mu.Lock()
	u, err := s.register(req.Name, req.Email, req.Password)
	s.mu.Unlock()
	switch {
	case errors.Is(err, ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondWithToken(w, http.StatusCreated, u)
}

func (s *Server) respondWithToken(w http.ResponseWriter, status int, u *user) {
	token, err := s.tokens.generate(u.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, authResponse{
		Token: token,
		User:  models.User{Name: u.Name, Email: u.Email},
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	hook := s.listHook
	s.mu.Unlock()
	if hook != nil {
		hook(r)
	}

	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 0)
	if err != nil || page < 0 {
		writeError(w, http.StatusBadRequest, "page must be a non-negative integer")
		return
	}
	size, err := intParam(q.Get("size"), defaultPageSize)
	if err != nil || size <= 0 || size > maxPageSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("size must be between 1 and %d", maxPageSize))
		return
	}

	owner := strings.ToLower(emailFrom(r.Context()))
	search := strings.ToLower(q.Get("search"))

	s.mu.Lock()
	var matched []models.Subscription
	for _, rec := range s.records {
		if rec.owner != owner {
			continue
		}
		if search != "" && !matches(&rec.sub, search) {
			continue
		}
		matched = append(matched, rec.sub)
	}
	s.mu.Unlock()

	if raw := q.Get("sort"); raw != "" {
		if err := sortSubscriptions(matched, raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	total := len(matched)
	start := min(page*size, total)
	end := min(start+size, total)
	content := matched[start:end]
	if content == nil {
		content = []models.Subscription{}
	}

	writeJSON(w, http.StatusOK, models.Page{
		Content:       content,
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
		Number:        page,
		Size:          size,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := models.ID(mux.Vars(r)["id"])

	s.mu.Lock()
	_, rec := s.find(emailFrom(r.Context()), id)
	var sub models.Subscription
	if rec != nil {
		sub = rec.sub
	}
	s.mu.Unlock()

	if rec == nil {
		writeError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	rec := s.insert(emailFrom(r.Context()), draft)
	sub := rec.sub
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	id := models.ID(mux.Vars(r)["id"])

	s.mu.Lock()
	_, rec := s.find(emailFrom(r.Context()), id)
	var sub models.Subscription
	if rec != nil {
		rec.sub = models.Subscription{
			ID:              rec.sub.ID,
			Name:            draft.Name,
			Category:        draft.Category,
			Amount:          draft.Amount,
			Currency:        draft.Currency,
			BillingPeriod:   draft.BillingPeriod,
			NextBillingDate: draft.NextBillingDate,
			AutoRenew:       draft.AutoRenew,
			PaymentMethod:   draft.PaymentMethod,
			Notes:           draft.Notes,
		}
		sub = rec.sub
	}
	s.mu.Unlock()

	if rec == nil {
		writeError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := models.ID(mux.Vars(r)["id"])

	s.mu.Lock()
	i, rec := s.find(emailFrom(r.Context()), id)
	if rec != nil {
		s.records = slices.Delete(s.records, i, i+1)
	}
	s.mu.Unlock()

	if rec == nil {
		writeError(w, http.StatusNotFound, "Subscription not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (models.Draft, bool) {
	var draft models.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return draft, false
	}
	if strings.TrimSpace(draft.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return draft, false
	}
	if draft.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return draft, false
	}
	return draft, true
}

func matches(sub *models.Subscription, needle string) bool {
	return strings.Contains(strings.ToLower(sub.Name), needle) ||
		strings.Contains(strings.ToLower(string(sub.Category)), needle) ||
		strings.Contains(strings.ToLower(sub.Notes), needle)
}

// sortSubscriptions orders subs by "<field>,<asc|desc>".
func sortSubscriptions(subs []models.Subscription, raw string) error {
	field, dir, _ := strings.Cut(raw, ",")
	desc := strings.EqualFold(dir, "desc")

	key, ok := sortKeys[field]
	if !ok {
		return fmt.Errorf("unknown sort field %q", field)
	}
	slices.SortStableFunc(subs, func(a, b models.Subscription) int {
		c := key(&a, &b)
		if desc {
			return -c
		}
		return c
	})
	return nil
}

var sortKeys = map[string]func(a, b *models.Subscription) int{
	"id":              func(a, b *models.Subscription) int { return cmp.Compare(a.ID, b.ID) },
	"name":            func(a, b *models.Subscription) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
	"category":        func(a, b *models.Subscription) int { return cmp.Compare(a.Category, b.Category) },
	"amount":          func(a, b *models.Subscription) int { return cmp.Compare(a.Amount, b.Amount) },
	"currency":        func(a, b *models.Subscription) int { return cmp.Compare(a.Currency, b.Currency) },
	"billingPeriod":   func(a, b *models.Subscription) int { return cmp.Compare(a.BillingPeriod, b.BillingPeriod) },
	"nextBillingDate": func(a, b *models.Subscription) int { return cmp.Compare(a.NextBillingDate, b.NextBillingDate) },
	"paymentMethod":   func(a, b *models.Subscription) int { return cmp.Compare(a.PaymentMethod, b.PaymentMethod) },
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
