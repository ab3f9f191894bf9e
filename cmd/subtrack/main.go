package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mmynk/subtrack/internal/config"
	"github.com/mmynk/subtrack/pkg/logging"
)

const usage = `subtrack - manage your recurring subscriptions

Usage:
  subtrack <command> [options]

Commands:
  login       Sign in and remember the session
  logout      Forget the current session
  register    Create an account
  whoami      Show the signed-in user
  list        Print one page of subscriptions
  show        Print one subscription
  add         Create a subscription
  edit        Change a subscription
  delete      Delete a subscription
  dashboard   Print the spending summary
  browse      Interactive list view

Examples:
  subtrack login --email=asha@example.com
  subtrack list --page=1 --size=25 --sort=amount,desc --search=net
  subtrack add --name=Netflix --amount=499 --next=2025-07-01
  subtrack edit 42 --amount=649
  subtrack delete 42 --yes

Environment:
  SUBTRACK_API_URL, SUBTRACK_TIMEOUT, SUBTRACK_SESSION_DB, SUBTRACK_PAGE_SIZE,
  SUBTRACK_SORT, SUBTRACK_SEARCH_DEBOUNCE, SUBTRACK_DASHBOARD_SIZE,
  SUBTRACK_METRICS_ADDR, LOG_LEVEL (a .env file in the working directory is read too)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The list view owns the terminal, so its logs go to a file.
	if command == "browse" {
		closeLog, err := logging.SetupFile(filepath.Join(filepath.Dir(cfg.Session.DBPath), "subtrack.log"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer closeLog()
	} else {
		logging.Setup()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCLI(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	err = c.Run(ctx, command, os.Args[2:])
	switch {
	case err == nil:
	case errors.Is(err, errUnknownCommand):
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", command, usage)
		c.Close()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		c.Close()
		os.Exit(1)
	}
}
