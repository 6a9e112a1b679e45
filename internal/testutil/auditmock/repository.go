package auditmock

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "tradecore/internal/domain/audit"
)

var _ domain.Repository = (*Memory)(nil)

// Memory is an in-memory audit store for usecase tests. AppendFn, when set, replaces the
// default append so tests can inject failures.
type Memory struct {
	mu       sync.Mutex
	events   []domain.Event
	AppendFn func(ctx context.Context, e *domain.Event) error
}

func (m *Memory) Append(ctx context.Context, e *domain.Event) error {
	if m.AppendFn != nil {
		if err := m.AppendFn(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *Memory) LastTimestamp(_ context.Context, tradeID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last time.Time
	found := false
	for _, e := range m.events {
		if e.TradeID == tradeID && (!found || e.Timestamp.After(last)) {
			last, found = e.Timestamp, true
		}
	}
	return last, found, nil
}

func (m *Memory) ListByTrade(_ context.Context, tradeID string) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.events {
		if e.TradeID == tradeID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Types returns the event types recorded for a trade, oldest first.
func (m *Memory) Types(tradeID string) []domain.EventType {
	evs, _ := m.ListByTrade(context.Background(), tradeID)
	out := make([]domain.EventType, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.EventType)
	}
	return out
}
