// Package sync orchestrates pulling messages from an account's mail server
// into the local store.
package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"missive/internal/identity"
	"missive/internal/mail"
	"missive/internal/model"
	"missive/internal/store"
)

// Phase identifies where a sync run is in its pipeline.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseResolving
	PhaseDeduplicating
	PhaseCommitted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseResolving:
		return "resolving"
	case PhaseDeduplicating:
		return "deduplicating"
	case PhaseCommitted:
		return "committed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result summarizes a completed sync run.
type Result struct {
	Fetched   int       `json:"fetched"`
	New       int       `json:"new"`
	Skipped   int       `json:"skipped"`
	Phase     Phase     `json:"-"`
	StartedAt time.Time `json:"startedAt"`
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Status reports the outcome of the most recent sync run.
type Status struct {
	Phase    Phase     `json:"phase"`
	LastSync time.Time `json:"lastSync"`
	LastErr  error     `json:"-"`
}

// Syncer pulls remote messages into the store, resolving identities and
// skipping messages whose external id is already present.
type Syncer struct {
	store      store.Store
	transports mail.Factory
	resolver   *identity.Resolver
	logger     *zap.Logger

	mu     gosync.Mutex
	status Status
}

// New creates a Syncer. transports builds the protocol client for each
// account; tests substitute a fake factory.
func New(
	s store.Store,
	transports mail.Factory,
	resolver *identity.Resolver,
	logger *zap.Logger,
) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		store:      s,
		transports: transports,
		resolver:   resolver,
		logger:     logger,
	}
}

// SyncFolder fetches up to maxCount of the newest messages in folder for the
// account and commits the ones not already stored.
//
// Commits are incremental and never rolled back: a failure partway leaves
// every message committed so far in place, and the next run skips them as
// duplicates. An identity-resolution failure aborts the run; the resolver
// writes through the store, so a failure there means the store itself is
// unavailable.
func (sy *Syncer) SyncFolder(
	ctx context.Context,
	account model.Account,
	folder string,
	maxCount int,
) (Result, error) {
	result := Result{Phase: PhaseIdle, StartedAt: time.Now().UTC()}
	log := sy.logger.With(
		zap.String("account", account.Email),
		zap.String("folder", folder),
	)

	result.Phase = PhaseFetching
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	messages, err := sy.transports(account).Fetch(fetchCtx, folder, maxCount)
	if err != nil {
		result.Phase = PhaseFailed
		sy.recordStatus(PhaseFailed, err)
		log.Warn("fetch failed", zap.Error(err))
		return result, err
	}
	result.Fetched = len(messages)
	log.Debug("fetched messages", zap.Int("count", len(messages)))

	for i := range messages {
		msg := &messages[i]

		result.Phase = PhaseResolving
		if err := sy.resolver.Annotate(ctx, msg); err != nil {
			result.Phase = PhaseFailed
			sy.recordStatus(PhaseFailed, err)
			log.Error("identity resolution failed",
				zap.String("id", msg.ID), zap.Error(err),
			)
			return result, err
		}

		result.Phase = PhaseDeduplicating
		err := sy.store.CreateMessage(ctx, *msg)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			result.Skipped++
		case err != nil:
			result.Phase = PhaseFailed
			sy.recordStatus(PhaseFailed, err)
			log.Error("commit failed", zap.String("id", msg.ID), zap.Error(err))
			return result, err
		default:
			result.New++
		}
	}

	result.Phase = PhaseCommitted
	sy.recordStatus(PhaseCommitted, nil)
	log.Info("sync complete",
		zap.Int("fetched", result.Fetched),
		zap.Int("new", result.New),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// LastStatus returns the phase, time, and error of the most recent run.
func (sy *Syncer) LastStatus() Status {
	sy.mu.Lock()
	defer sy.mu.Unlock()
	return sy.status
}

func (sy *Syncer) recordStatus(phase Phase, err error) {
	sy.mu.Lock()
	defer sy.mu.Unlock()

	sy.status.Phase = phase
	sy.status.LastErr = err
	if err == nil {
		sy.status.LastSync = time.Now().UTC()
	}
}
