// Package store persists discovered combinations and the leaderboard in a
// shared durable store. The Mongo backend serves multi-replica
// deployments; the SQLite backend serves single-node play; the memory
// backend serves tests. All backends provide the same two primitives the
// coordinator relies on: insert-if-absent and atomic counter increments.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Errors returned by store operations.
var (
	// ErrUnavailable marks transient failures (network, timeout) that the
	// caller may retry. It is never returned for a plain cache miss.
	ErrUnavailable = errors.New("store unavailable")
)

// CombinationKey is the canonical, order-independent pairing of two
// words. A is always lexicographically <= B.
type CombinationKey struct {
	A string `bson:"a" json:"a"`
	B string `bson:"b" json:"b"`
}

// NewKey canonicalizes a word pair into a key. (x, y) and (y, x) produce
// the same key.
func NewKey(x, y string) CombinationKey {
	if x > y {
		x, y = y, x
	}
	return CombinationKey{A: x, B: y}
}

// String renders the key in its storage form, "a+b".
func (k CombinationKey) String() string {
	return k.A + "+" + k.B
}

// CombinationRecord is a committed discovery: the resolved result, who
// found it first, and when. Immutable once written.
type CombinationRecord struct {
	Key          CombinationKey `json:"key"`
	Result       string         `json:"result"`
	Discoverer   string         `json:"discoverer"`
	DiscoveredAt time.Time      `json:"discovered_at"`
}

// User identifies a requesting player. Name is a display name captured on
// the user's first ledger write.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name,omitempty"`
	FirstDiscoveries int64  `json:"first_discoveries"`
	TotalDiscoveries int64  `json:"total_discoveries"`
}

// UserRecord is a full per-user view: counters plus collected words.
type UserRecord struct {
	LeaderboardEntry
	Words []string `json:"words,omitempty"`
}

// Store is the durable store shared by all replicas.
type Store interface {
	// Combination returns the committed record for a key, or (nil, nil)
	// on a miss. A transient failure is an error, never a miss.
	Combination(ctx context.Context, key CombinationKey) (*CombinationRecord, error)

	// PutCombinationIfAbsent atomically commits rec unless a record for
	// its key already exists. Reports whether rec was inserted; when it
	// was not, the previously committed record is returned.
	PutCombinationIfAbsent(ctx context.Context, rec CombinationRecord) (bool, *CombinationRecord, error)

	// RecordDiscovery increments the user's total-discoveries counter,
	// and the first-discoveries counter when first is true, and adds the
	// result word to the user's collected set. Increments are atomic
	// under concurrent callers.
	RecordDiscovery(ctx context.Context, user User, word string, first bool) error

	// Leaderboard returns up to limit entries ordered by first
	// discoveries desc, then total discoveries desc, then user ID.
	// limit <= 0 returns all entries.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// GetUser returns the user's counters and collected words, or
	// (nil, nil) if the user has never recorded a discovery.
	GetUser(ctx context.Context, userID string) (*UserRecord, error)

	// Close releases the backend connection.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open constructs a Store for the named backend. address is the Mongo
// connection URI or the SQLite file path; namespace is the database name
// (Mongo only).
func Open(ctx context.Context, backend, address, namespace string) (Store, error) {
	switch backend {
	case BackendMongo:
		return OpenMongo(ctx, address, namespace)
	case BackendSQLite:
		return OpenSQLite(address)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
