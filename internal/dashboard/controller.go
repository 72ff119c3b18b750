package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/storm-dashboard/internal/domain"
	"github.com/couchcryptid/storm-dashboard/internal/observability"
	"github.com/google/uuid"
)

// User-visible messages for failed loads.
const (
	MessageTransport = "Could not connect to the server."
	MessageMalformed = "The server returned an unreadable storm payload."
	messageNotFound  = "No storm data found for date %s."
	messageEmpty     = "No active storms recorded for date %s."
)

// StormSource fetches the raw storms-by-date payload.
type StormSource interface {
	FetchStorms(ctx context.Context, date domain.DateKey) ([]byte, error)
}

// SnapshotPublisher receives every successfully loaded snapshot.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snapshot domain.Snapshot) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher forwards successful snapshots to p.
func WithPublisher(p SnapshotPublisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// Controller runs date-keyed storm loads against a Store. A new selection
// supersedes any load still in flight: the old request is cancelled and its
// result, if it arrives anyway, is discarded.
type Controller struct {
	source     StormSource
	normalizer *domain.Normalizer
	store      *Store
	publisher  SnapshotPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics

	// mu orders publishes: seq and the store are only changed together.
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewController creates a Controller publishing into store.
func NewController(source StormSource, normalizer *domain.Normalizer, store *Store, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Controller {
	c := &Controller{
		source:     source,
		normalizer: normalizer,
		store:      store,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current dashboard state.
func (c *Controller) State() State {
	return c.store.Snapshot()
}

// SelectDate loads the storms for raw and returns the resulting state. An
// invalid date key clears the selection. If a newer selection arrives while
// this one is in flight, the returned state is the newer one's.
func (c *Controller) SelectDate(ctx context.Context, raw string) State {
	date, ok := domain.ParseDateKey(raw)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if !ok {
		st := c.store.update(func(s *State) { *s = emptyState() })
		c.mu.Unlock()
		c.logger.Info("invalid date key, selection cleared", "date", raw)
		return st
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancel = cancel
	c.store.update(func(s *State) {
		s.ActiveDate = &date
		s.FocusedStorm = nil
		s.Error = nil
		s.Loading = true
	})
	c.mu.Unlock()

	requestID := uuid.NewString()
	logger := c.logger.With("date", date.String(), "request_id", requestID)
	start := time.Now()

	storms, err := c.load(observability.WithRequestID(fetchCtx, requestID), date, logger)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.metrics.StormFetches.WithLabelValues("superseded").Inc()
		logger.Debug("discarding superseded storm load")
		return c.store.Snapshot()
	}
	c.cancel = nil
	st := c.store.update(func(s *State) {
		s.Loading = false
		s.FocusedStorm = nil
		if err != nil {
			msg := UserMessage(err)
			s.Storms = []domain.Storm{}
			s.SnapshotDate = nil
			s.Error = &msg
			return
		}
		s.Storms = storms
		s.SnapshotDate = &date
		s.Error = nil
	})
	c.mu.Unlock()

	c.metrics.StormFetchDuration.Observe(time.Since(start).Seconds())
	c.metrics.StormFetches.WithLabelValues(outcome(err)).Inc()
	c.metrics.SnapshotStorms.Set(float64(len(st.Storms)))

	if err != nil {
		logger.Warn("storm load failed", "outcome", outcome(err), "error", err)
		return st
	}
	logger.Info("storm snapshot loaded", "storm_count", len(storms))
	c.publish(ctx, domain.NewSnapshot(date, storms), logger)
	return st
}

// load fetches and normalizes one date. Zero storms is an *EmptyResultError.
func (c *Controller) load(ctx context.Context, date domain.DateKey, logger *slog.Logger) ([]domain.Storm, error) {
	body, err := c.source.FetchStorms(ctx, date)
	if err != nil {
		return nil, err
	}

	env, err := domain.ParseStormEnvelope(body)
	if err != nil {
		return nil, err
	}
	logger.Debug("storm envelope decoded",
		"upstream_date", env.Date,
		"directory", env.Directory,
		"total_files", env.TotalFiles,
		"entries", len(env.Entries),
	)

	res := c.normalizer.Normalize(env.Entries, date)
	for _, s := range res.Skipped {
		logger.Debug("skipped storm entry", "key", s.Key, "reason", s.Reason)
	}
	c.metrics.SkippedRecords.Add(float64(len(res.Skipped)))

	if len(res.Storms) == 0 {
		return nil, &domain.EmptyResultError{Date: date, Skipped: len(res.Skipped)}
	}
	return res.Storms, nil
}

func (c *Controller) publish(ctx context.Context, snapshot domain.Snapshot, logger *slog.Logger) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		c.metrics.SnapshotPublishes.WithLabelValues("error").Inc()
		logger.Error("publish snapshot", "error", err)
		return
	}
	c.metrics.SnapshotPublishes.WithLabelValues("success").Inc()
}

// FocusStorm focuses the storm with id in the current snapshot. It reports
// false and leaves the focus unchanged when no such storm exists.
func (c *Controller) FocusStorm(id string) (State, bool) {
	found := false
	st := c.store.update(func(s *State) {
		for i := range s.Storms {
			if s.Storms[i].ID == id {
				storm := s.Storms[i]
				s.FocusedStorm = &storm
				found = true
				return
			}
		}
	})
	return st, found
}

// ClearFocus removes the focused storm.
func (c *Controller) ClearFocus() State {
	return c.store.update(func(s *State) { s.FocusedStorm = nil })
}

// UserMessage maps a load failure to the message shown to the user.
func UserMessage(err error) string {
	var (
		nf *domain.NotFoundError
		er *domain.EmptyResultError
		mi *domain.MalformedInputError
	)
	switch {
	case errors.As(err, &nf):
		return fmt.Sprintf(messageNotFound, nf.Date)
	case errors.As(err, &er):
		return fmt.Sprintf(messageEmpty, er.Date)
	case errors.As(err, &mi):
		return MessageMalformed
	default:
		return MessageTransport
	}
}

func outcome(err error) string {
	var (
		nf *domain.NotFoundError
		er *domain.EmptyResultError
		mi *domain.MalformedInputError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &er):
		return "empty"
	case errors.As(err, &mi):
		return "malformed"
	default:
		return "transport"
	}
}
