// Command tripsplit manages the active trip on this device: create or join
// a trip, record expenses, and see who owes whom.
//
// Usage:
//
//	tripsplit create -name "Bali 2025" -people Alice,Bob,Carol
//	tripsplit add -title Dinner -amount 300.000 -payer Alice [-split Alice,Bob]
//	tripsplit settle
//
// Run "tripsplit help" for every command.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mmynk/tripsplit/internal/config"
	"github.com/mmynk/tripsplit/internal/remote"
	"github.com/mmynk/tripsplit/internal/storage/sqlite"
	"github.com/mmynk/tripsplit/internal/tripsync"
	"github.com/mmynk/tripsplit/pkg/logging"
)

// flushTimeout bounds how long the CLI waits for a background push before exiting.
const flushTimeout = 15 * time.Second

func main() {
	logging.SetupWithLevel(logging.ParseLevel(getEnv("LOG_LEVEL", "warn")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type command struct {
	usage string
	// offline commands never open the coordinator
	offline bool
	run     func(ctx context.Context, a *app, args []string) error
}

// commands is filled in init because the handlers refer back to it for usage text.
var commands map[string]command

func init() {
	commands = map[string]command{
		"create":   {usage: "create -name NAME -people A,B[,C...] [-start YYYY-MM-DD] [-end YYYY-MM-DD]", run: cmdCreate},
		"add":      {usage: "add -title T -amount N -payer NAME [-split A,B] [-category C] [-date YYYY-MM-DD] [-notes N] [-receipt FILE [-yes]]", run: cmdAdd},
		"delete":   {usage: "delete EXPENSE_ID", run: cmdDelete},
		"join":     {usage: "join SHARE_CODE", run: cmdJoin},
		"show":     {usage: "show", run: cmdShow},
		"balances": {usage: "balances", run: cmdBalances},
		"settle":   {usage: "settle", run: cmdSettle},
		"summary":  {usage: "summary", run: cmdSummary},
		"status":   {usage: "status", run: cmdStatus},
		"scan":     {usage: "scan FILE", offline: true, run: cmdScan},
	}
}

var commandOrder = []string{"create", "add", "delete", "join", "show", "balances", "settle", "summary", "scan", "status"}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: tripsplit COMMAND [flags]")
	fmt.Fprintln(w)
	for _, name := range commandOrder {
		fmt.Fprintln(w, "  tripsplit", commands[name].usage)
	}
}

// app is what every command works against.
type app struct {
	cfg   config.Config
	coord *tripsync.Coordinator
	out   io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, out: out}
	if cmd.offline {
		return cmd.run(ctx, a, args[1:])
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	client := remote.NewClient(http.DefaultClient, cfg.RemoteURL, cfg.Token)
	a.coord = tripsync.New(ctx, store, client, tripsync.NewHTTPProber(cfg.ProbeURL), cfg.Sync())
	defer a.coord.Close()

	return cmd.run(ctx, a, args[1:])
}

// flush waits for the push started by a mutation and reports how it went.
func (a *app) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := a.coord.WaitIdle(ctx); err != nil {
		fmt.Fprintln(a.out, "warning: sync did not finish:", err)
		return
	}

	status := a.coord.Status()
	switch {
	case status.SyncError != "":
		fmt.Fprintln(a.out, "warning:", status.SyncError)
	case status.State == tripsync.StateOffline:
		fmt.Fprintln(a.out, "Saved offline. It will sync with your next change while online.")
	default:
		fmt.Fprintln(a.out, "Synced.")
	}
}
