package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/mmynk/tripsplit/internal/remote"
	"github.com/mmynk/tripsplit/internal/storage/sqlite"
	"github.com/mmynk/tripsplit/internal/tripsync"
)

// setupLedger starts a ledger server and points the CLI at it.
func setupLedger(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to create ledger store: %v", err)
	}

	path, handler := remote.NewHandler(remote.NewService(store))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	t.Setenv("TRIPSPLIT_REMOTE_URL", server.URL)
	t.Setenv("TRIPSPLIT_PROBE_URL", server.URL)
	t.Setenv("TRIPSPLIT_TOKEN", "")
	return server
}

func runCLI(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TRIPSPLIT_DB_PATH", db)
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, db, args...)
	if err != nil {
		t.Fatalf("tripsplit %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

var shareCodeLine = regexp.MustCompile(`Share code: ([A-Z0-9]{6})`)

func TestCreateAddSettleJoin(t *testing.T) {
	setupLedger(t)
	dir := t.TempDir()
	alice := filepath.Join(dir, "alice.db")
	bob := filepath.Join(dir, "bob.db")

	out := mustRun(t, alice, "create", "-name", "Bali", "-people", "Alice, Bob, Carol", "-start", "2025-03-01", "-end", "2025-03-05")
	m := shareCodeLine.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no share code in output:\n%s", out)
	}
	code := m[1]
	if !strings.Contains(out, "Synced.") {
		t.Errorf("expected create to sync:\n%s", out)
	}

	out = mustRun(t, alice, "add", "-title", "Villa", "-amount", "300", "-payer", "alice", "-category", "accommodation")
	if !strings.Contains(out, `Added "Villa" (Rp300) paid by Alice, split 3 ways.`) {
		t.Errorf("unexpected add output:\n%s", out)
	}

	out = mustRun(t, alice, "settle")
	want := "Bob pays Alice Rp100\nCarol pays Alice Rp100\n2 payments, Rp200 in total\n"
	if out != want {
		t.Errorf("settle output = %q, want %q", out, want)
	}

	// A second device joins with the code, in lower case
	out = mustRun(t, bob, "join", strings.ToLower(code))
	if !strings.Contains(out, `Joined "Bali": 3 participants, 1 expenses.`) {
		t.Errorf("unexpected join output:\n%s", out)
	}

	out = mustRun(t, bob, "balances")
	for _, line := range []string{"Alice", "is owed", "Rp200", "Bob", "owes", "Rp100"} {
		if !strings.Contains(out, line) {
			t.Errorf("balances output missing %q:\n%s", line, out)
		}
	}

	out = mustRun(t, bob, "summary")
	if !strings.Contains(out, "Total spent: Rp300 across 1 expenses") || !strings.Contains(out, "Accommodation") {
		t.Errorf("unexpected summary output:\n%s", out)
	}

	out = mustRun(t, bob, "show")
	if !strings.Contains(out, "Bali (share code "+code+")") || !strings.Contains(out, "1 Mar 2025 to 5 Mar 2025") {
		t.Errorf("unexpected show output:\n%s", out)
	}
}

func TestDeleteExpense(t *testing.T) {
	setupLedger(t)
	db := filepath.Join(t.TempDir(), "device.db")

	mustRun(t, db, "create", "-name", "Lombok", "-people", "Dewi,Eko")
	out := mustRun(t, db, "add", "-title", "Boat", "-amount", "Rp400.000", "-payer", "Eko")

	id := regexp.MustCompile(`Expense id: (\S+)`).FindStringSubmatch(out)
	if id == nil {
		t.Fatalf("no expense id in output:\n%s", out)
	}

	out = mustRun(t, db, "delete", id[1])
	if !strings.Contains(out, `Deleted "Boat" (Rp400.000).`) {
		t.Errorf("unexpected delete output:\n%s", out)
	}
	if out := mustRun(t, db, "settle"); out != "All settled up!\n" {
		t.Errorf("expected settled trip, got %q", out)
	}

	if _, err := runCLI(t, db, "delete", id[1]); err == nil {
		t.Error("expected deleting twice to fail")
	}
}

func TestJoinOffline(t *testing.T) {
	setupLedger(t)
	db := filepath.Join(t.TempDir(), "device.db")
	mustRun(t, db, "create", "-name", "Lombok", "-people", "Dewi,Eko")

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	t.Setenv("TRIPSPLIT_PROBE_URL", dead.URL)

	_, err := runCLI(t, db, "join", "ABC123")
	if !errors.Is(err, tripsync.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}

	out := mustRun(t, db, "status")
	if !strings.Contains(out, "Connectivity: offline") || !strings.Contains(out, "Active trip: Lombok") {
		t.Errorf("unexpected status output:\n%s", out)
	}
}

func TestNoActiveTrip(t *testing.T) {
	setupLedger(t)
	db := filepath.Join(t.TempDir(), "device.db")

	if _, err := runCLI(t, db, "settle"); err == nil {
		t.Error("expected settle without a trip to fail")
	}
	if _, err := runCLI(t, db, "add", "-title", "x", "-amount", "1", "-payer", "A"); err == nil {
		t.Error("expected add without a trip to fail")
	}
}

func TestScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.txt")
	text := "STRUK\nWarung Made\nNasi Goreng 35.000\nTOTAL 35.000\n"
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("failed to write receipt: %v", err)
	}

	out, err := runCLI(t, filepath.Join(t.TempDir(), "unused.db"), "scan", path)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	for _, want := range []string{"Merchant: Warung Made", "Total: Rp35.000", "Nasi Goreng"} {
		if !strings.Contains(out, want) {
			t.Errorf("scan output missing %q:\n%s", want, out)
		}
	}
}

func TestAddFromReceiptNeedsConfirmation(t *testing.T) {
	setupLedger(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "device.db")
	path := filepath.Join(dir, "receipt.txt")
	if err := os.WriteFile(path, []byte("WARUNG MADE\nNasi Goreng 25.000\nTOTAL 987.654\n"), 0o600); err != nil {
		t.Fatalf("failed to write receipt: %v", err)
	}
	mustRun(t, db, "create", "-name", "Ubud", "-people", "Alice,Bob")

	out := mustRun(t, db, "add", "-payer", "Alice", "-receipt", path)
	for _, want := range []string{"WARUNG MADE", "Rp987.654", "Not saved."} {
		if !strings.Contains(out, want) {
			t.Errorf("add output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Added") {
		t.Errorf("expected nothing to be saved:\n%s", out)
	}
	if out := mustRun(t, db, "show"); !strings.Contains(out, "No expenses yet.") {
		t.Fatalf("receipt suggestion was saved without -yes:\n%s", out)
	}

	// Values the user typed need no confirmation
	out = mustRun(t, db, "add", "-payer", "Alice", "-title", "Dinner", "-amount", "90000", "-notes", "nasi", "-receipt", path)
	if !strings.Contains(out, `Added "Dinner" (Rp90.000) paid by Alice, split 2 ways.`) {
		t.Errorf("unexpected add output:\n%s", out)
	}

	out = mustRun(t, db, "add", "-payer", "Alice", "-receipt", path, "-yes")
	if !strings.Contains(out, `Added "WARUNG MADE" (Rp987.654) paid by Alice, split 2 ways.`) {
		t.Errorf("unexpected add output:\n%s", out)
	}
	if out := mustRun(t, db, "show"); !strings.Contains(out, "WARUNG MADE") || !strings.Contains(out, "Dinner") {
		t.Errorf("expected both expenses:\n%s", out)
	}
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out.String(), "tripsplit join SHARE_CODE") {
		t.Errorf("usage missing join:\n%s", out.String())
	}
	if err := run(context.Background(), []string{"frobnicate"}, &out); err == nil {
		t.Error("expected unknown command to fail")
	}
}
