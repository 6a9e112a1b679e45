package audit

import (
	"context"
	"time"

	"tradecore/pkg/id"
)

// minStep keeps per-trade timestamps strictly increasing when the clock stalls.
const minStep = time.Microsecond

// Trail appends events for a trade with monotonic timestamps. An out-of-order timestamp is
// replaced, never refused, so auditing cannot block a business operation.
type Trail struct {
	repo Repository
	now  func() time.Time
}

func NewTrail(repo Repository, now func() time.Time) *Trail {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Trail{repo: repo, now: now}
}

// Append stamps e and writes it. It reports whether the proposed timestamp was substituted.
func (t *Trail) Append(ctx context.Context, e *Event) (substituted bool, err error) {
	last, ok, err := t.repo.LastTimestamp(ctx, e.TradeID)
	if err != nil {
		return false, err
	}
	proposed := e.Timestamp
	if proposed.IsZero() {
		proposed = t.now()
	}
	var prev *time.Time
	if ok {
		prev = &last
	}
	e.Timestamp, substituted = Stamp(prev, proposed, t.now())
	if e.EventID == "" {
		e.EventID = id.NewEventID(e.Timestamp)
	}
	if err := t.repo.Append(ctx, e); err != nil {
		return false, err
	}
	return substituted, nil
}

// QueryByTrade returns the trade's events in timestamp order. It is read-only.
func (t *Trail) QueryByTrade(ctx context.Context, tradeID string) ([]Event, error) {
	return t.repo.ListByTrade(ctx, tradeID)
}

// Stamp returns the timestamp to record. A proposed time not after last is replaced by now,
// or by last+1µs when now is not after last either. Times are compared at the microsecond
// precision the store keeps.
func Stamp(last *time.Time, proposed, now time.Time) (time.Time, bool) {
	proposed = proposed.UTC().Truncate(minStep)
	if last == nil {
		return proposed, false
	}
	prev := last.UTC().Truncate(minStep)
	if proposed.After(prev) {
		return proposed, false
	}
	now = now.UTC().Truncate(minStep)
	if now.After(prev) {
		return now, true
	}
	return prev.Add(minStep), true
}
