package repository

import (
	"context"
	"sort"
	"sync"

	"match-settlement-system/models"
)

// Memory is a map-backed Runner/Tx used to test the settlement coordinator
// without Postgres. InTx snapshots all state before running the callback and
// restores it when the callback fails, mirroring transactional rollback.
// It also counts mutations so tests can assert that a code path wrote
// nothing.
type Memory struct {
	mu          sync.Mutex
	matches     map[string]models.Match
	ratings     map[string]models.PlayerRating
	profiles    map[string]models.PlayerProfile
	ledger      []models.GoldLedgerEntry
	settlements map[string]models.Settlement
	config      map[string]string
	writes      int
}

func NewMemory() *Memory {
	return &Memory{
		matches:     make(map[string]models.Match),
		ratings:     make(map[string]models.PlayerRating),
		profiles:    make(map[string]models.PlayerProfile),
		settlements: make(map[string]models.Settlement),
		config:      make(map[string]string),
	}
}

func (m *Memory) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(&memTx{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	matches     map[string]models.Match
	ratings     map[string]models.PlayerRating
	profiles    map[string]models.PlayerProfile
	ledger      []models.GoldLedgerEntry
	settlements map[string]models.Settlement
	config      map[string]string
	writes      int
}

func (m *Memory) snapshot() memorySnapshot {
	return memorySnapshot{
		matches:     copyMap(m.matches),
		ratings:     copyMap(m.ratings),
		profiles:    copyMap(m.profiles),
		ledger:      append([]models.GoldLedgerEntry(nil), m.ledger...),
		settlements: copyMap(m.settlements),
		config:      copyMap(m.config),
		writes:      m.writes,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.matches = s.matches
	m.ratings = s.ratings
	m.profiles = s.profiles
	m.ledger = s.ledger
	m.settlements = s.settlements
	m.config = s.config
	m.writes = s.writes
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// --- test seeding and inspection helpers ---

func (m *Memory) PutMatch(match models.Match) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[match.ID] = match
}

func (m *Memory) PutRating(r models.PlayerRating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[r.UserID] = r
}

func (m *Memory) PutProfile(p models.PlayerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

func (m *Memory) SetConfig(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config[key] = value
}

func (m *Memory) Match(id string) (models.Match, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	return match, ok
}

func (m *Memory) Rating(userID string) (models.PlayerRating, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[userID]
	return r, ok
}

func (m *Memory) Profile(userID string) (models.PlayerProfile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	return p, ok
}

func (m *Memory) Settlement(matchID string) (models.Settlement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[matchID]
	return s, ok
}

func (m *Memory) LedgerFor(userID string) []models.GoldLedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.GoldLedgerEntry
	for _, e := range m.ledger {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries
}

// Writes returns the total number of mutations applied so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// --- Tx implementation (caller already holds m.mu) ---

type memTx struct {
	m *Memory
}

func (t *memTx) Matches() MatchStore { return &memMatchStore{m: t.m} }
func (t *memTx) Ratings() RatingStore { return &memRatingStore{m: t.m} }
func (t *memTx) Profiles() ProfileStore { return &memProfileStore{m: t.m} }
func (t *memTx) Ledger() LedgerStore { return &memLedgerStore{m: t.m} }
func (t *memTx) Settlements() SettlementStore { return &memSettlementStore{m: t.m} }
func (t *memTx) Config() ConfigStore { return &memConfigStore{m: t.m} }

type memMatchStore struct{ m *Memory }

func (s *memMatchStore) Get(id string) (*models.Match, error) {
	match, ok := s.m.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &match, nil
}

func (s *memMatchStore) MarkRankingProcessed(id string) error {
	match, ok := s.m.matches[id]
	if !ok {
		return ErrNotFound
	}
	match.RankingProcessed = true
	s.m.matches[id] = match
	s.m.writes++
	return nil
}

type memRatingStore struct{ m *Memory }

func (s *memRatingStore) Get(userID string) (*models.PlayerRating, error) {
	r, ok := s.m.ratings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memRatingStore) Save(r *models.PlayerRating) error {
	s.m.ratings[r.UserID] = *r
	s.m.writes++
	return nil
}

type memProfileStore struct{ m *Memory }

func (s *memProfileStore) Get(userID string) (*models.PlayerProfile, error) {
	p, ok := s.m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *memProfileStore) SetGoldBalance(userID string, balance int64) error {
	p := s.m.profiles[userID]
	p.UserID = userID
	p.GoldBalance = balance
	s.m.profiles[userID] = p
	s.m.writes++
	return nil
}

type memLedgerStore struct{ m *Memory }

func (s *memLedgerStore) Append(e *models.GoldLedgerEntry) error {
	s.m.ledger = append(s.m.ledger, *e)
	s.m.writes++
	return nil
}

func (s *memLedgerStore) ListByUser(userID string, limit int) ([]models.GoldLedgerEntry, error) {
	var entries []models.GoldLedgerEntry
	for _, e := range s.m.ledger {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type memSettlementStore struct{ m *Memory }

func (s *memSettlementStore) Get(matchID string) (*models.Settlement, error) {
	rec, ok := s.m.settlements[matchID]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	out.Participants = append([]byte(nil), rec.Participants...)
	return &out, nil
}

func (s *memSettlementStore) Create(rec *models.Settlement) error {
	stored := *rec
	stored.Participants = append([]byte(nil), rec.Participants...)
	s.m.settlements[rec.MatchID] = stored
	s.m.writes++
	return nil
}

type memConfigStore struct{ m *Memory }

func (s *memConfigStore) Get(key string) (string, error) {
	v, ok := s.m.config[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memConfigStore) Ensure(key, value string) error {
	if _, ok := s.m.config[key]; ok {
		return nil
	}
	s.m.config[key] = value
	s.m.writes++
	return nil
}
