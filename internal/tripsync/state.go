// Package tripsync owns the active trip on a device. It persists every
// mutation locally before returning, pushes snapshots to the shared ledger
// while online, and joins other devices' trips by share code.
package tripsync

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

var (
	// ErrOffline is returned by operations that need the ledger while offline.
	ErrOffline = errors.New("no internet connection")

	// ErrNoActiveTrip is returned when an operation needs a trip and none exists.
	ErrNoActiveTrip = errors.New("no active trip")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("coordinator closed")
)

// State is the connectivity state of the coordinator.
type State int

const (
	StateOffline State = iota
	StateOnlineIdle
	StateSyncing
)

func (s State) String() string {
	switch s {
	case StateOffline:
		return "offline"
	case StateOnlineIdle:
		return "online"
	case StateSyncing:
		return "syncing"
	default:
		return "unknown"
	}
}

// Remote is the shared ledger.
type Remote interface {
	// Push overwrites the remote snapshot of trip.
	Push(ctx context.Context, trip *models.Trip) error
	// Pull fetches the snapshot registered under an upper-case share code.
	Pull(ctx context.Context, code string) (*models.Trip, error)
}

// Status is a point-in-time view of sync health.
type Status struct {
	State State

	// SyncError is the last push or join failure, until dismissed.
	SyncError string

	// LastSync is when a push last succeeded. Zero if never.
	LastSync time.Time
}

// Config tunes the coordinator. Zero fields take the DefaultConfig values.
type Config struct {
	// ProbeInterval is how often connectivity is sampled.
	ProbeInterval time.Duration
	// ProbeTimeout bounds a single probe.
	ProbeTimeout time.Duration
	// JoinTimeout bounds the pull issued by JoinTripWithCode.
	JoinTimeout time.Duration
	// PushTimeout bounds each background push.
	PushTimeout time.Duration
	// MinPayment is the smallest transfer Settlements will suggest.
	MinPayment money.Money
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		ProbeInterval: 5 * time.Second,
		ProbeTimeout:  3 * time.Second,
		JoinTimeout:   15 * time.Second,
		PushTimeout:   30 * time.Second,
		MinPayment:    calculator.DefaultMinPayment,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = d.ProbeInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = d.JoinTimeout
	}
	if c.PushTimeout <= 0 {
		c.PushTimeout = d.PushTimeout
	}
	if c.MinPayment <= 0 {
		c.MinPayment = d.MinPayment
	}
	return c
}
