// Package services implements the application flows on top of the
// repositories: admitting a new drink, deriving stats, resetting history.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/dmitrijs2005/waterlog/internal/logging"
	"github.com/dmitrijs2005/waterlog/internal/models"
	"github.com/dmitrijs2005/waterlog/internal/ratelimit"
	"github.com/dmitrijs2005/waterlog/internal/repositories/replica"
	"github.com/dmitrijs2005/waterlog/internal/stats"
)

// Notifier is the part of the sync coordinator the service needs: telling
// it that a new local entry was admitted.
type Notifier interface {
	EntryAdmitted(ctx context.Context, e models.Entry)
}

// LogResult reports the outcome of a log attempt. A rate-limit rejection is
// normal control flow, not an error: Admitted is false and Message holds
// the text shown to the user verbatim.
type LogResult struct {
	Entry    *models.Entry
	Admitted bool
	Message  string
}

// DrinkService gates, persists and announces drink entries, and derives
// stats from the replica.
type DrinkService struct {
	replicas replica.Repository
	limiter  *ratelimit.Limiter
	notifier Notifier
	log      logging.Logger
	now      func() time.Time
}

// NewDrinkService wires the service. notifier may be nil for read-only
// consumers (widgets); now defaults to time.Now.
func NewDrinkService(replicas replica.Repository, limiter *ratelimit.Limiter, notifier Notifier, log logging.Logger) *DrinkService {
	if log == nil {
		log = logging.Noop{}
	}
	return &DrinkService{
		replicas: replicas,
		limiter:  limiter,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *DrinkService) WithClock(now func() time.Time) *DrinkService {
	s.now = now
	return s
}

// Log runs the admission flow: rate-limit gate, entry construction, append,
// admission record, peer notification. The admission is recorded only after
// the entry was actually persisted; recording it speculatively would
// wrongly suppress the user's next legitimate log.
func (s *DrinkService) Log(ctx context.Context, size models.DrinkSize) (LogResult, error) {
	now := s.now()

	allowed, msg, err := s.limiter.CanAdmit(ctx, now)
	if err != nil {
		return LogResult{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return LogResult{Admitted: false, Message: msg}, nil
	}

	e, err := models.NewEntry(size, now)
	if err != nil {
		return LogResult{}, err
	}

	if _, err := s.replicas.Append(ctx, e); err != nil {
		return LogResult{}, fmt.Errorf("failed to append entry: %w", err)
	}

	if err := s.limiter.RecordAdmission(ctx, now); err != nil {
		// The entry is already durable; a failed cooldown write only
		// relaxes the next gate check.
		s.log.Warn(ctx, "failed to record admission", "err", err)
	}

	if s.notifier != nil {
		s.notifier.EntryAdmitted(ctx, e)
	}

	return LogResult{Entry: &e, Admitted: true}, nil
}

// Stats derives the current summary from the replica. A corrupt stored
// replica degrades to empty stats with a logged diagnostic.
func (s *DrinkService) Stats(ctx context.Context) (stats.Summary, error) {
	rep, err := s.loadTolerant(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(rep, s.now()), nil
}

// Entries returns the replica snapshot for display, newest first.
func (s *DrinkService) Entries(ctx context.Context) ([]models.Entry, error) {
	rep, err := s.loadTolerant(ctx)
	if err != nil {
		return nil, err
	}
	return rep.Entries, nil
}

// Reset wipes the local history (the bulk "start over" operation). The
// peer's replica is untouched; a later snapshot exchange will bring its
// entries back, which is the documented behavior of a one-device reset.
func (s *DrinkService) Reset(ctx context.Context) error {
	return s.replicas.Reset(ctx)
}

func (s *DrinkService) loadTolerant(ctx context.Context) (models.Replica, error) {
	rep, err := s.replicas.Load(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrStorageDecode) {
			return models.Replica{}, err
		}
		s.log.Warn(ctx, "stored replica is corrupt, treating as empty", "err", err)
	}
	return rep, nil
}
