package store

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

// backends returns a fresh instance of every locally testable backend.
// The Mongo backend needs a live server and is covered by the same
// interface contract.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "alchemy.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestNewKeyCanonical(t *testing.T) {
	tests := []struct {
		x, y  string
		wantA string
		wantB string
	}{
		{"fire", "water", "fire", "water"},
		{"water", "fire", "fire", "water"},
		{"earth", "earth", "earth", "earth"},
	}
	for _, tt := range tests {
		k := NewKey(tt.x, tt.y)
		if k.A != tt.wantA || k.B != tt.wantB {
			t.Errorf("NewKey(%q, %q) = %+v, want A=%q B=%q", tt.x, tt.y, k, tt.wantA, tt.wantB)
		}
		if k != NewKey(tt.y, tt.x) {
			t.Errorf("NewKey(%q, %q) != NewKey(%q, %q)", tt.x, tt.y, tt.y, tt.x)
		}
	}

	if got := NewKey("fire", "water").String(); got != "fire+water" {
		t.Errorf("String() = %q, want fire+water", got)
	}
}

func TestPutCombinationIfAbsent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := CombinationRecord{
				Key:          NewKey("fire", "water"),
				Result:       "steam",
				Discoverer:   "alice",
				DiscoveredAt: time.Now().UTC().Truncate(time.Millisecond),
			}

			inserted, existing, err := s.PutCombinationIfAbsent(ctx, rec)
			if err != nil {
				t.Fatalf("first put: %v", err)
			}
			if !inserted || existing != nil {
				t.Fatalf("first put: inserted=%v existing=%v, want inserted with no existing", inserted, existing)
			}

			// A losing put reports the committed record, not its own.
			loser := rec
			loser.Result = "mist"
			loser.Discoverer = "bob"
			inserted, existing, err = s.PutCombinationIfAbsent(ctx, loser)
			if err != nil {
				t.Fatalf("second put: %v", err)
			}
			if inserted {
				t.Fatal("second put reported inserted")
			}
			if existing == nil || existing.Result != "steam" || existing.Discoverer != "alice" {
				t.Fatalf("second put existing = %+v, want alice's steam", existing)
			}

			got, err := s.Combination(ctx, rec.Key)
			if err != nil {
				t.Fatalf("Combination: %v", err)
			}
			if got == nil || got.Result != "steam" || got.Discoverer != "alice" {
				t.Fatalf("Combination = %+v, want alice's steam", got)
			}
		})
	}
}

func TestCombinationMiss(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.Combination(context.Background(), NewKey("never", "seen"))
			if err != nil {
				t.Fatalf("Combination: %v", err)
			}
			if got != nil {
				t.Fatalf("Combination on empty store = %+v, want nil", got)
			}
		})
	}
}

func TestPutCombinationConcurrent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const replicas = 32
			ctx := context.Background()
			key := NewKey("earth", "fire")

			var wg sync.WaitGroup
			results := make([]bool, replicas)
			for i := 0; i < replicas; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					rec := CombinationRecord{
						Key:          key,
						Result:       "lava",
						Discoverer:   "user" + string(rune('a'+i%26)),
						DiscoveredAt: time.Now().UTC(),
					}
					inserted, _, err := s.PutCombinationIfAbsent(ctx, rec)
					if err != nil {
						t.Errorf("replica %d: %v", i, err)
						return
					}
					results[i] = inserted
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, inserted := range results {
				if inserted {
					winners++
				}
			}
			if winners != 1 {
				t.Errorf("%d concurrent puts produced %d winners, want exactly 1", replicas, winners)
			}
		})
	}
}

func TestRecordDiscoveryCounters(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := User{ID: "alice", Name: "Alice"}

			// 5 discoveries, 2 of them first.
			firsts := []bool{true, false, true, false, false}
			for _, f := range firsts {
				if err := s.RecordDiscovery(ctx, u, "steam", f); err != nil {
					t.Fatalf("RecordDiscovery: %v", err)
				}
			}

			rec, err := s.GetUser(ctx, "alice")
			if err != nil {
				t.Fatalf("GetUser: %v", err)
			}
			if rec == nil {
				t.Fatal("GetUser = nil after discoveries")
			}
			if rec.TotalDiscoveries != 5 || rec.FirstDiscoveries != 2 {
				t.Errorf("counters = total %d first %d, want total 5 first 2",
					rec.TotalDiscoveries, rec.FirstDiscoveries)
			}
			if rec.Name != "Alice" {
				t.Errorf("name = %q, want Alice", rec.Name)
			}
			// Same word five times collects once.
			if !reflect.DeepEqual(rec.Words, []string{"steam"}) {
				t.Errorf("words = %v, want [steam]", rec.Words)
			}
		})
	}
}

func TestRecordDiscoveryConcurrent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const n = 40
			ctx := context.Background()
			u := User{ID: "bob", Name: "Bob"}

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := s.RecordDiscovery(ctx, u, "mud", i%4 == 0); err != nil {
						t.Errorf("RecordDiscovery: %v", err)
					}
				}(i)
			}
			wg.Wait()

			rec, err := s.GetUser(ctx, "bob")
			if err != nil {
				t.Fatalf("GetUser: %v", err)
			}
			if rec.TotalDiscoveries != n {
				t.Errorf("total = %d, want %d", rec.TotalDiscoveries, n)
			}
			if rec.FirstDiscoveries != n/4 {
				t.Errorf("first = %d, want %d", rec.FirstDiscoveries, n/4)
			}
		})
	}
}

func TestRecordDiscoveryAbortedLeavesNoTrace(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "alchemy.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	defer s.Close()

	// An aborted discovery must not leave half its writes behind: no
	// bumped counters without the collected word, and vice versa.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RecordDiscovery(cancelled, User{ID: "alice"}, "steam", true); err == nil {
		t.Fatal("RecordDiscovery with cancelled context succeeded, want error")
	}

	rec, err := s.GetUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if rec != nil {
		t.Errorf("aborted discovery left user record %+v", rec)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// carol: 3 first / 3 total, alice: 1 first / 4 total,
			// bob: 1 first / 2 total, dave: 0 first / 1 total.
			seed := []struct {
				user  User
				first []bool
			}{
				{User{ID: "carol", Name: "Carol"}, []bool{true, true, true}},
				{User{ID: "alice", Name: "Alice"}, []bool{true, false, false, false}},
				{User{ID: "bob", Name: "Bob"}, []bool{true, false}},
				{User{ID: "dave", Name: "Dave"}, []bool{false}},
			}
			for _, sd := range seed {
				for _, f := range sd.first {
					if err := s.RecordDiscovery(ctx, sd.user, "", f); err != nil {
						t.Fatalf("RecordDiscovery: %v", err)
					}
				}
			}

			entries, err := s.Leaderboard(ctx, 0)
			if err != nil {
				t.Fatalf("Leaderboard: %v", err)
			}
			var order []string
			for _, e := range entries {
				order = append(order, e.UserID)
			}
			want := []string{"carol", "alice", "bob", "dave"}
			if !reflect.DeepEqual(order, want) {
				t.Errorf("leaderboard order = %v, want %v", order, want)
			}

			top2, err := s.Leaderboard(ctx, 2)
			if err != nil {
				t.Fatalf("Leaderboard(2): %v", err)
			}
			if len(top2) != 2 || top2[0].UserID != "carol" || top2[1].UserID != "alice" {
				t.Errorf("top 2 = %v, want carol then alice", top2)
			}
		})
	}
}

func TestGetUserUnknown(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.GetUser(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("GetUser: %v", err)
			}
			if rec != nil {
				t.Errorf("GetUser(nobody) = %+v, want nil", rec)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "etcd", "", "")
	if err == nil {
		t.Fatal("Open with unknown backend succeeded")
	}
}
