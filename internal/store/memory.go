package store

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store for tests and throwaway play. It honors
// the same atomicity contract as the durable backends via a single mutex.
type Memory struct {
	mu           sync.Mutex
	combinations map[string]CombinationRecord
	users        map[string]*UserRecord
	wordSets     map[string]map[string]bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		combinations: make(map[string]CombinationRecord),
		users:        make(map[string]*UserRecord),
		wordSets:     make(map[string]map[string]bool),
	}
}

func (m *Memory) Combination(_ context.Context, key CombinationKey) (*CombinationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.combinations[key.String()]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (m *Memory) PutCombinationIfAbsent(_ context.Context, rec CombinationRecord) (bool, *CombinationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.combinations[rec.Key.String()]; ok {
		return false, &existing, nil
	}
	m.combinations[rec.Key.String()] = rec
	return true, nil, nil
}

func (m *Memory) RecordDiscovery(_ context.Context, user User, word string, first bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[user.ID]
	if !ok {
		u = &UserRecord{LeaderboardEntry: LeaderboardEntry{UserID: user.ID, Name: user.Name}}
		m.users[user.ID] = u
		m.wordSets[user.ID] = make(map[string]bool)
	}
	u.TotalDiscoveries++
	if first {
		u.FirstDiscoveries++
	}
	if word != "" && !m.wordSets[user.ID][word] {
		m.wordSets[user.ID][word] = true
		u.Words = append(u.Words, word)
	}
	return nil
}

func (m *Memory) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]LeaderboardEntry, 0, len(m.users))
	for _, u := range m.users {
		entries = append(entries, u.LeaderboardEntry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FirstDiscoveries != entries[j].FirstDiscoveries {
			return entries[i].FirstDiscoveries > entries[j].FirstDiscoveries
		}
		if entries[i].TotalDiscoveries != entries[j].TotalDiscoveries {
			return entries[i].TotalDiscoveries > entries[j].TotalDiscoveries
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *Memory) GetUser(_ context.Context, userID string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	out := *u
	out.Words = append([]string(nil), u.Words...)
	return &out, nil
}

func (m *Memory) Close() error {
	return nil
}
