package tripsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

// Coordinator is the single owner of the active trip.
//
// All state lives on one goroutine (the run loop). Public methods submit
// closures to it and wait; probes and pushes run in the background and post
// their results back to it.
type Coordinator struct {
	store   storage.LocalStore
	remote  Remote
	prober  Prober
	cfg     Config
	reducer calculator.Reducer

	ops     chan func()
	quit    chan struct{}
	stopped chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	bg        sync.WaitGroup
	pushes    sync.WaitGroup
	closeOnce sync.Once

	// Owned by the run loop.
	trip        *models.Trip
	online      bool
	inFlight    int
	syncErr     string
	lastSync    time.Time
	closing     bool
	idleWaiters []chan struct{}
	subscribers map[chan struct{}]struct{}
}

// New restores the last saved trip from store, probes connectivity once, and
// then keeps sampling it every ProbeInterval.
func New(ctx context.Context, store storage.LocalStore, remote Remote, prober Prober, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()

	trip, err := store.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load saved trip, starting empty", "error", err)
		trip = nil
	}
	if trip != nil {
		slog.Info("Restored trip", "trip_id", trip.ID, "name", trip.Name, "expenses", len(trip.Expenses))
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		store:       store,
		remote:      remote,
		prober:      prober,
		cfg:         cfg,
		reducer:     calculator.NewReducer(cfg.MinPayment),
		ops:         make(chan func()),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		ctx:         bgCtx,
		cancel:      cancel,
		trip:        trip,
		subscribers: make(map[chan struct{}]struct{}),
	}
	c.online = c.probe(ctx) == nil
	slog.Info("Sync coordinator started", "state", c.state())

	go c.run()
	c.bg.Add(1)
	go c.probeLoop()

	return c
}

// Close rejects new mutations, lets in-flight pushes finish (each is bounded
// by PushTimeout), then stops probing and the run loop.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		c.submit(func() { c.closing = true })
		c.pushes.Wait()
		c.cancel()
		c.bg.Wait()
		close(c.quit)
		<-c.stopped
	})
	return nil
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		select {
		case op := <-c.ops:
			op()
		case <-c.quit:
			return
		}
	}
}

// submit runs op on the loop without waiting for it. Used by background work.
func (c *Coordinator) submit(op func()) {
	select {
	case c.ops <- op:
	case <-c.quit:
	}
}

// call runs op on the loop and returns its result.
func (c *Coordinator) call(ctx context.Context, op func() error) error {
	errc := make(chan error, 1)
	select {
	case c.ops <- func() { errc <- op() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrClosed
	}
	return <-errc
}

// query runs a read-only op on the loop.
func (c *Coordinator) query(op func()) bool {
	return c.call(context.Background(), func() error { op(); return nil }) == nil
}

func (c *Coordinator) state() State {
	switch {
	case !c.online:
		return StateOffline
	case c.inFlight > 0:
		return StateSyncing
	default:
		return StateOnlineIdle
	}
}

// Subscribe returns a channel that receives a signal after every change to
// the trip or the sync status, and a function to stop the subscription.
// Signals coalesce: a slow reader sees one pending signal, not a backlog.
func (c *Coordinator) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	if !c.query(func() { c.subscribers[ch] = struct{}{} }) {
		close(ch)
		return ch, func() {}
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() { c.query(func() { delete(c.subscribers, ch) }) })
	}
}

func (c *Coordinator) notify() {
	for ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Trip returns a copy of the active trip, or nil if there is none.
func (c *Coordinator) Trip() *models.Trip {
	var trip *models.Trip
	c.query(func() { trip = c.trip.Clone() })
	return trip
}

// Status reports the connectivity state and the last sync error.
func (c *Coordinator) Status() Status {
	var s Status
	c.query(func() {
		s = Status{State: c.state(), SyncError: c.syncErr, LastSync: c.lastSync}
	})
	return s
}

// DismissSyncError clears the sync error message.
func (c *Coordinator) DismissSyncError() {
	c.query(func() {
		if c.syncErr != "" {
			c.syncErr = ""
			c.notify()
		}
	})
}

// Balances computes every participant's net position on the active trip.
func (c *Coordinator) Balances() (calculator.Balances, error) {
	trip := c.Trip()
	if trip == nil {
		return nil, ErrNoActiveTrip
	}
	return calculator.ComputeBalances(trip), nil
}

// Settlements computes the transfers that settle the active trip.
func (c *Coordinator) Settlements() ([]calculator.Settlement, error) {
	balances, err := c.Balances()
	if err != nil {
		return nil, err
	}
	return c.reducer.Reduce(balances), nil
}

// Summary aggregates the active trip's spending.
func (c *Coordinator) Summary() (calculator.Summary, error) {
	trip := c.Trip()
	if trip == nil {
		return calculator.Summary{}, ErrNoActiveTrip
	}
	return calculator.Summarize(trip), nil
}

// CheckConnectivity probes immediately and applies the result.
func (c *Coordinator) CheckConnectivity(ctx context.Context) State {
	err := c.probe(ctx)
	var s State
	c.query(func() {
		c.setOnline(err == nil)
		s = c.state()
	})
	return s
}

func (c *Coordinator) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()
	return c.prober.Probe(ctx)
}

func (c *Coordinator) probeLoop() {
	defer c.bg.Done()

	ticker := time.NewTicker(c.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}

		err := c.probe(c.ctx)
		if c.ctx.Err() != nil {
			return
		}
		c.submit(func() { c.setOnline(err == nil) })
	}
}

func (c *Coordinator) setOnline(online bool) {
	if c.online == online {
		return
	}
	c.online = online
	slog.Info("Connectivity changed", "state", c.state())
	c.notify()
}

// WaitIdle blocks until no push or join is in flight.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	var idle chan struct{}
	err := c.call(ctx, func() error {
		if c.inFlight > 0 {
			idle = make(chan struct{})
			c.idleWaiters = append(c.idleWaiters, idle)
		}
		return nil
	})
	if err != nil || idle == nil {
		return err
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) endSync() {
	c.inFlight--
	if c.inFlight == 0 {
		for _, w := range c.idleWaiters {
			close(w)
		}
		c.idleWaiters = nil
	}
}

// commit saves next and makes it the active trip. The in-memory trip only
// changes once the snapshot is durable.
func (c *Coordinator) commit(ctx context.Context, next *models.Trip) error {
	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	c.trip = next
	c.notify()
	return nil
}

// mutate applies fn to a copy of the active trip, saves the result, and
// pushes it when online.
func (c *Coordinator) mutate(ctx context.Context, fn func(trip *models.Trip) (*models.Trip, error)) error {
	return c.call(ctx, func() error {
		if c.closing {
			return ErrClosed
		}
		next, err := fn(c.trip.Clone())
		if err != nil {
			return err
		}
		if err := c.commit(ctx, next); err != nil {
			return err
		}
		c.startPush()
		return nil
	})
}

// startPush sends the active trip in the background. Pushes are never
// queued or retried; concurrent pushes race and the last to land wins.
func (c *Coordinator) startPush() {
	if !c.online {
		slog.Debug("Offline, not pushing", "trip_id", c.trip.ID)
		return
	}

	snapshot := c.trip.Clone()
	c.inFlight++
	c.notify()

	c.pushes.Add(1)
	go func() {
		defer c.pushes.Done()

		ctx, cancel := context.WithTimeout(c.ctx, c.cfg.PushTimeout)
		err := c.remote.Push(ctx, snapshot)
		cancel()

		c.submit(func() { c.finishPush(snapshot, err) })
	}()
}

func (c *Coordinator) finishPush(snapshot *models.Trip, err error) {
	c.endSync()
	if err != nil {
		slog.Warn("Push failed", "trip_id", snapshot.ID, "error", err)
		c.syncErr = fmt.Sprintf("Sync failed: %v", err)
	} else {
		slog.Debug("Push complete", "trip_id", snapshot.ID, "expenses", len(snapshot.Expenses))
		c.lastSync = time.Now()
	}
	c.notify()
}

// CreateTrip starts a new trip, replacing the active one.
func (c *Coordinator) CreateTrip(ctx context.Context, in models.TripInput) (*models.Trip, error) {
	var created *models.Trip
	err := c.mutate(ctx, func(*models.Trip) (*models.Trip, error) {
		trip, err := models.NewTrip(in)
		if err != nil {
			return nil, err
		}
		created = trip.Clone()
		return trip, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Trip created", "trip_id", created.ID, "share_code", created.ShareCode,
		"participants", len(created.Participants))
	return created, nil
}

// AddExpense records a new expense on the active trip.
func (c *Coordinator) AddExpense(ctx context.Context, in models.ExpenseInput) (models.Expense, error) {
	var added models.Expense
	err := c.mutate(ctx, func(trip *models.Trip) (*models.Trip, error) {
		if trip == nil {
			return nil, ErrNoActiveTrip
		}
		expense, err := models.NewExpense(in)
		if err != nil {
			return nil, err
		}
		if err := trip.AddExpense(expense); err != nil {
			return nil, err
		}
		added = expense
		return trip, nil
	})
	if err != nil {
		return models.Expense{}, err
	}
	slog.Info("Expense added", "expense_id", added.ID, "title", added.Title, "amount", added.Amount)
	return added, nil
}

// DeleteExpense removes an expense from the active trip.
func (c *Coordinator) DeleteExpense(ctx context.Context, id string) error {
	err := c.mutate(ctx, func(trip *models.Trip) (*models.Trip, error) {
		if trip == nil {
			return nil, ErrNoActiveTrip
		}
		if err := trip.DeleteExpense(id); err != nil {
			return nil, err
		}
		return trip, nil
	})
	if err != nil {
		return err
	}
	slog.Info("Expense deleted", "expense_id", id)
	return nil
}

// JoinTripWithCode replaces the active trip with the ledger's snapshot for code.
// It fails with ErrOffline without contacting the ledger when offline. On any
// failure the active trip is left untouched.
func (c *Coordinator) JoinTripWithCode(ctx context.Context, code string) (*models.Trip, error) {
	var normalized string
	err := c.call(ctx, func() error {
		if c.closing {
			return ErrClosed
		}
		if !c.online {
			c.syncErr = ErrOffline.Error()
			c.notify()
			return ErrOffline
		}
		var err error
		normalized, err = models.NormalizeShareCode(code)
		if err != nil {
			return err
		}
		c.inFlight++
		c.notify()
		return nil
	})
	if err != nil {
		return nil, err
	}

	pullCtx, cancel := context.WithTimeout(ctx, c.cfg.JoinTimeout)
	fetched, pullErr := c.remote.Pull(pullCtx, normalized)
	cancel()

	var joined *models.Trip
	// Always applied, even if ctx is already done, so inFlight is released.
	err = c.call(context.Background(), func() error {
		defer c.notify()
		c.endSync()
		if pullErr != nil {
			slog.Warn("Join failed", "share_code", normalized, "error", pullErr)
			c.syncErr = fmt.Sprintf("Could not join trip %s: %v", normalized, pullErr)
			return pullErr
		}
		if err := c.commit(ctx, fetched); err != nil {
			c.syncErr = err.Error()
			return err
		}
		joined = fetched.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Joined trip", "trip_id", joined.ID, "name", joined.Name, "expenses", len(joined.Expenses))
	return joined, nil
}
