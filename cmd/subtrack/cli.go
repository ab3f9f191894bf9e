package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/subtrack/internal/api"
	"github.com/mmynk/subtrack/internal/auth"
	"github.com/mmynk/subtrack/internal/config"
	"github.com/mmynk/subtrack/internal/forms"
	"github.com/mmynk/subtrack/internal/metrics"
	"github.com/mmynk/subtrack/internal/session"
	"github.com/mmynk/subtrack/internal/storage/sqlite"
	"github.com/mmynk/subtrack/internal/subscriptions"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errNotSignedIn    = errors.New("not signed in: run `subtrack login` first")
)

// userError carries the text shown to the user alongside the cause.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// fail converts err into the message the user sees.
func fail(err error, fallback string) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return &userError{msg: "Session expired or invalid: run `subtrack login` again", err: err}
	}
	slog.Debug("Command failed", "error", err)
	return &userError{msg: forms.Message(err, fallback), err: err}
}

type command struct {
	run func(c *cli, ctx context.Context, args []string) error

	// public commands run without a session.
	public bool
}

var commands = map[string]command{
	"login":     {run: (*cli).login, public: true},
	"logout":    {run: (*cli).logout, public: true},
	"register":  {run: (*cli).register, public: true},
	"whoami":    {run: (*cli).whoami},
	"list":      {run: (*cli).list},
	"show":      {run: (*cli).show},
	"add":       {run: (*cli).add},
	"edit":      {run: (*cli).edit},
	"delete":    {run: (*cli).remove},
	"dashboard": {run: (*cli).dashboard},
	"browse":    {run: (*cli).browse},
}

// cli holds the wired client stack for one invocation.
type cli struct {
	cfg     *config.Config
	in      *bufio.Reader
	out     io.Writer
	now     func() time.Time
	logger  *slog.Logger
	store   *sqlite.SQLiteStore
	metrics *metrics.Metrics
	client  *api.Client
	session *session.Manager
	auth    auth.Authenticator
	subs    *subscriptions.Store

	metricsSrv *http.Server
	closeOnce  sync.Once
}

func newCLI(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*cli, error) {
	logger := slog.Default()

	store, err := sqlite.New(cfg.Session.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	c := &cli{
		cfg:     cfg,
		in:      bufio.NewReader(in),
		out:     out,
		now:     time.Now,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
	}

	// The session manager needs the authenticator, and the client needs
	// the session manager as its token source. TokenFunc breaks the cycle.
	client, err := api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithInterceptors(
			api.RequestID(),
			api.BearerAuth(api.TokenFunc(func() string { return c.session.Token() })),
			api.Logging(logger),
			api.Metrics(c.metrics),
		),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid SUBTRACK_API_URL: %w", err)
	}
	c.client = client
	c.auth = auth.NewRemoteAuthenticator(client)
	c.session = session.NewManager(store, c.auth, logger)
	c.subs = subscriptions.NewStore(client)

	if err := c.session.Restore(ctx); err != nil {
		// A broken session file only means the user has to sign in again.
		logger.Warn("Ignoring unreadable session", "error", err)
	}

	if cfg.Metrics.Addr != "" {
		c.serveMetrics(cfg.Metrics.Addr)
	}
	return c, nil
}

func (c *cli) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.metrics.Handler())
	c.metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		c.logger.Info("Metrics endpoint listening", "address", addr)
		if err := c.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Metrics endpoint failed", "error", err)
		}
	}()
}

// Run dispatches one command. Commands other than login, logout and
// register require a signed-in session.
func (c *cli) Run(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		return errUnknownCommand
	}
	if !cmd.public && !c.session.IsAuthenticated() {
		return errNotSignedIn
	}
	if err := cmd.run(c, ctx, args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return err
	}
	return nil
}

// Close releases the session store and stops the metrics endpoint.
func (c *cli) Close() {
	c.closeOnce.Do(func() {
		if c.metricsSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = c.metricsSrv.Shutdown(ctx)
		}
		if err := c.store.Close(); err != nil {
			c.logger.Warn("Failed to close session store", "error", err)
		}
	})
}

// prompt asks for a value on the input stream when flag was left empty.
func (c *cli) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(c.out, "%s: ", label)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
