package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

// ErrNoSnapshot is returned by persisters that hold no snapshot yet.
var ErrNoSnapshot = errors.New("no stored snapshot")

// Persister keeps the single current snapshot across restarts.
type Persister interface {
	Load(ctx context.Context) (*program.Snapshot, error)
	Save(ctx context.Context, snap *program.Snapshot) error
	Close() error
}

// Notifier is told about every accepted snapshot, in acceptance order.
type Notifier interface {
	Notify(ctx context.Context, snap *program.Snapshot)
}

// Store holds the current program snapshot. Readers take the pointer once
// per pass; writers are serialized so validation, persistence, the swap and
// notification happen as one step.
type Store struct {
	mu        sync.Mutex
	current   atomic.Pointer[program.Snapshot]
	persister Persister
	notifiers []Notifier
	metrics   *Metrics
	logger    *zap.Logger
}

// NewStore creates a store. A nil persister keeps the snapshot in memory only.
func NewStore(persister Persister, metrics *Metrics, logger *zap.Logger) *Store {
	return &Store{
		persister: persister,
		metrics:   metrics,
		logger:    logger,
	}
}

// AddNotifier registers a subscriber for accepted snapshots.
func (s *Store) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// Current returns the snapshot in effect, or nil.
func (s *Store) Current() *program.Snapshot {
	return s.current.Load()
}

// Load restores the persisted snapshot, if any.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		s.logger.Info("No stored treatment program")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	s.mu.Lock()
	s.current.Store(snap)
	s.mu.Unlock()

	s.logger.Info("Loaded treatment program",
		zap.String("snapshot", snap.ID.String()),
		zap.Time("accepted_at", snap.AcceptedAt),
		zap.Ints("weeks", snap.Program.WeekNumbers()))
	return nil
}

// Submit validates raw JSON against now and, when valid, persists it and
// makes it the current snapshot. A rejected program returns the validation
// result with a nil snapshot and nil error.
func (s *Store) Submit(ctx context.Context, raw []byte, now time.Time) (program.Result, *program.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, res := program.DecodeAndValidate(raw, now)
	if !res.IsValid {
		s.metrics.Submissions.WithLabelValues(SubmissionRejected).Inc()
		s.logger.Info("Rejected treatment program", zap.String("reason", res.ErrorMessage))
		return res, nil, nil
	}

	snap := program.NewSnapshot(p, raw, now)
	if s.persister != nil {
		if err := s.persister.Save(ctx, snap); err != nil {
			s.metrics.Submissions.WithLabelValues(SubmissionFailed).Inc()
			return program.Result{}, nil, fmt.Errorf("saving snapshot: %w", err)
		}
	}

	s.current.Store(snap)
	s.metrics.Submissions.WithLabelValues(SubmissionAccepted).Inc()
	s.logger.Info("Stored treatment program",
		zap.String("snapshot", snap.ID.String()),
		zap.Ints("weeks", p.WeekNumbers()))

	for _, n := range s.notifiers {
		n.Notify(ctx, snap)
	}
	return res, snap, nil
}

// Close releases the persister.
func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

// Resolve runs one month pass against the snapshot current at call time.
func (s *Store) Resolve(now time.Time) (*program.MonthView, error) {
	var p program.Program
	if snap := s.Current(); snap != nil {
		p = snap.Program
	}
	view, err := program.ResolveMonth(p, now)
	if err != nil {
		return nil, err
	}
	s.metrics.ObservePass(view)
	return view, nil
}
