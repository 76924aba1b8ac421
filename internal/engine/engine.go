// Package engine orchestrates combination resolution end to end: cache
// lookup, similarity resolution, first-discovery arbitration through the
// shared store, and ledger updates.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/yegorpanin/alchemy/internal/logger"
	"github.com/yegorpanin/alchemy/internal/resolver"
	"github.com/yegorpanin/alchemy/internal/store"
	"github.com/yegorpanin/alchemy/internal/vocab"
)

// Combiner derives a result word for a pair. Satisfied by
// *resolver.Resolver; narrowed to an interface so tests can inject a
// misbehaving implementation.
type Combiner interface {
	Combine(wordA, wordB string) (resolver.Match, error)
}

// Outcome is the result of a combination request.
type Outcome struct {
	Key            store.CombinationKey `json:"key"`
	Result         string               `json:"result"`
	FirstDiscovery bool                 `json:"first_discovery"`
	Discoverer     string               `json:"discoverer"`
}

// Retry policy for transient store failures. putIfAbsent is idempotent,
// so every step may be retried safely.
const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 100 * time.Millisecond
)

// Engine is the discovery coordinator.
type Engine struct {
	vocab       *vocab.Store
	combiner    Combiner
	store       store.Store
	log         *logger.Logger
	maxAttempts int
	backoffBase time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetry overrides the retry policy for transient store failures.
func WithRetry(attempts int, base time.Duration) Option {
	return func(e *Engine) {
		if attempts > 0 {
			e.maxAttempts = attempts
		}
		if base > 0 {
			e.backoffBase = base
		}
	}
}

// New creates an Engine.
func New(v *vocab.Store, c Combiner, s store.Store, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		vocab:       v,
		combiner:    c,
		store:       s,
		log:         log.With("component", "engine"),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveCombination runs the full discovery protocol for a word pair.
//
// The shared store, not wall-clock order, decides who the first
// discoverer is: a cache hit is never a first discovery, and on a miss
// the insert-if-absent commit arbitrates concurrent replicas. When the
// commit loses the race, the committed record wins even if the local
// resolver computed something else; such a mismatch is a determinism bug
// and is logged loudly rather than swallowed.
func (e *Engine) ResolveCombination(ctx context.Context, wordA, wordB string, user store.User) (Outcome, error) {
	a, err := e.vocab.Lookup(wordA)
	if err != nil {
		return Outcome{}, err
	}
	b, err := e.vocab.Lookup(wordB)
	if err != nil {
		return Outcome{}, err
	}
	key := store.NewKey(a.Word, b.Word)

	// Step 1: cache lookup.
	var cached *store.CombinationRecord
	err = e.withRetry(ctx, func() error {
		var err error
		cached, err = e.store.Combination(ctx, key)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	if cached != nil {
		outcome := Outcome{Key: key, Result: cached.Result, Discoverer: cached.Discoverer}
		if err := e.recordDiscovery(ctx, user, cached.Result, false); err != nil {
			return Outcome{}, err
		}
		return outcome, nil
	}

	// Step 2: resolve. Pure computation; abandoning here has no effect.
	match, err := e.combiner.Combine(a.Word, b.Word)
	if err != nil {
		return Outcome{}, err
	}
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}

	// Step 3: commit. The accepted insert decides first discovery.
	rec := store.CombinationRecord{
		Key:          key,
		Result:       match.Word,
		Discoverer:   user.ID,
		DiscoveredAt: time.Now().UTC(),
	}
	var inserted bool
	var existing *store.CombinationRecord
	err = e.withRetry(ctx, func() error {
		var err error
		inserted, existing, err = e.store.PutCombinationIfAbsent(ctx, rec)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{Key: key, Result: rec.Result, FirstDiscovery: inserted, Discoverer: user.ID}
	if !inserted {
		// Step 4: lost the race. The committed record is authoritative.
		outcome.Result = existing.Result
		outcome.Discoverer = existing.Discoverer
		if existing.Result != match.Word {
			e.log.Error("resolver determinism violation",
				"key", key.String(),
				"computed", match.Word,
				"committed", existing.Result,
				"committed_by", existing.Discoverer)
		}
	}

	if err := e.recordDiscovery(ctx, user, outcome.Result, inserted); err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// recordDiscovery updates the ledger with retries.
func (e *Engine) recordDiscovery(ctx context.Context, user store.User, word string, first bool) error {
	return e.withRetry(ctx, func() error {
		return e.store.RecordDiscovery(ctx, user, word, first)
	})
}

// Leaderboard returns the top entries from the shared ledger.
func (e *Engine) Leaderboard(ctx context.Context, topN int) ([]store.LeaderboardEntry, error) {
	var entries []store.LeaderboardEntry
	err := e.withRetry(ctx, func() error {
		var err error
		entries, err = e.store.Leaderboard(ctx, topN)
		return err
	})
	return entries, err
}

// GetUser returns a player's counters and collected words.
func (e *Engine) GetUser(ctx context.Context, userID string) (*store.UserRecord, error) {
	var rec *store.UserRecord
	err := e.withRetry(ctx, func() error {
		var err error
		rec, err = e.store.GetUser(ctx, userID)
		return err
	})
	return rec, err
}

// withRetry runs fn, retrying transient store failures with doubling
// backoff. Non-transient errors and context cancellation end the loop
// immediately.
func (e *Engine) withRetry(ctx context.Context, fn func() error) error {
	backoff := e.backoffBase
	var err error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, store.ErrUnavailable) {
			return err
		}
		if attempt == e.maxAttempts {
			break
		}
		e.log.Warn("transient store failure, retrying",
			"attempt", attempt, "backoff", backoff.String(), "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
