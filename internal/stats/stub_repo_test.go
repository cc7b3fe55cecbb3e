package stats

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// memStore is an in-memory trade and stats store with failure injection.
type memStore struct {
	mu     sync.Mutex
	trades map[string]map[string]models.Trade
	stats  map[string]models.TradeStats

	failQuery map[string]error
	failPut   map[string]error
	failScan  error
	puts      int
}

func newMemStore() *memStore {
	return &memStore{
		trades:    map[string]map[string]models.Trade{},
		stats:     map[string]models.TradeStats{},
		failQuery: map[string]error{},
		failPut:   map[string]error{},
	}
}

func (m *memStore) put(t models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trades[t.UserID] == nil {
		m.trades[t.UserID] = map[string]models.Trade{}
	}
	m.trades[t.UserID][t.TradeID] = t
}

func (m *memStore) remove(userID, tradeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trades[userID], tradeID)
}

func (m *memStore) sorted(userID string) []models.Trade {
	var out []models.Trade
	for _, t := range m.trades[userID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeID < out[j].TradeID })
	return out
}

func (m *memStore) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[userID][tradeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) QueryTradesByUser(ctx context.Context, userID, cursor string, limit int) (repository.TradePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failQuery[userID]; err != nil {
		return repository.TradePage{}, err
	}
	after, err := repository.DecodeCursor(cursor)
	if err != nil {
		return repository.TradePage{}, err
	}
	var items []models.Trade
	for _, t := range m.sorted(userID) {
		if after.TradeID != "" && t.TradeID <= after.TradeID {
			continue
		}
		items = append(items, t)
	}
	return paginate(items, limit, func(t models.Trade) repository.Cursor {
		return repository.Cursor{TradeID: t.TradeID}
	}), nil
}

func (m *memStore) ScanTrades(ctx context.Context, params repository.ScanParams) (repository.TradePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failScan != nil {
		return repository.TradePage{}, m.failScan
	}
	after, err := repository.DecodeCursor(params.Cursor)
	if err != nil {
		return repository.TradePage{}, err
	}
	users := make([]string, 0, len(m.trades))
	for u := range m.trades {
		users = append(users, u)
	}
	sort.Strings(users)
	var items []models.Trade
	for _, u := range users {
		for _, t := range m.sorted(u) {
			if after.UserID != "" && (u < after.UserID || (u == after.UserID && t.TradeID <= after.TradeID)) {
				continue
			}
			items = append(items, t)
		}
	}
	return paginate(items, params.Limit, func(t models.Trade) repository.Cursor {
		return repository.Cursor{UserID: t.UserID, TradeID: t.TradeID}
	}), nil
}

func paginate(items []models.Trade, limit int, cursorOf func(models.Trade) repository.Cursor) repository.TradePage {
	if limit <= 0 || len(items) <= limit {
		return repository.TradePage{Items: items}
	}
	items = items[:limit]
	return repository.TradePage{Items: items, NextCursor: repository.EncodeCursor(cursorOf(items[len(items)-1]))}
}

func (m *memStore) GetStats(ctx context.Context, userID string) (*models.TradeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.stats[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (m *memStore) PutStats(ctx context.Context, item *models.TradeStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failPut[item.UserID]; err != nil {
		return err
	}
	m.puts++
	m.stats[item.UserID] = *item
	return nil
}

func (m *memStore) ListStatsUserIDs(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	after, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	var ids []string
	for u := range m.stats {
		if u > after.UserID {
			ids = append(ids, u)
		}
	}
	sort.Strings(ids)
	if limit <= 0 || len(ids) <= limit {
		return ids, "", nil
	}
	ids = ids[:limit]
	return ids, repository.EncodeCursor(repository.Cursor{UserID: ids[len(ids)-1]}), nil
}

func (m *memStore) statsFor(userID string) (models.TradeStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.stats[userID]
	return row, ok
}

// memDedup records claimed event ids.
type memDedup struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
}

func newMemDedup() *memDedup {
	return &memDedup{claimed: map[string]bool{}}
}

func (d *memDedup) Claim(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimed[eventID] {
		return false, nil
	}
	d.claimed[eventID] = true
	return true, nil
}

func (d *memDedup) Release(ctx context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, eventID)
	d.released = append(d.released, eventID)
	return nil
}

type staticFlags map[string]bool

func (f staticFlags) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	v, ok := f[key]
	if !ok {
		return fallback
	}
	return v
}

var errBoom = errors.New("boom")

func d(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

func trade(userID, tradeID, side, entry, exit, qty string) models.Trade {
	t := models.Trade{
		UserID:   userID,
		TradeID:  tradeID,
		Side:     side,
		Quantity: decimal.RequireFromString(qty),
	}
	if entry != "" {
		t.EntryPrice = d(entry)
	}
	if exit != "" {
		t.ExitPrice = d(exit)
	}
	return t
}
