package mysql

import (
	"context"
	"testing"
	"time"

	domain "tradecore/internal/domain/audit"
	"tradecore/pkg/id"
)

func makeEvent(tradeID string, typ domain.EventType, at time.Time) *domain.Event {
	return &domain.Event{
		EventID:     id.NewEventID(at),
		TradeID:     tradeID,
		EventType:   typ,
		PerformedBy: "alice",
		Timestamp:   at.UTC(),
	}
}

func TestAudit_LastTimestampAndOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	if _, ok, err := repo.LastTimestamp(ctx, "T1"); err != nil || ok {
		t.Fatalf("empty trail: ok=%v err=%v", ok, err)
	}

	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	created := makeEvent("T1", domain.EventCreated, base)
	routed := makeEvent("T1", domain.EventRouted, base.Add(time.Microsecond))
	other := makeEvent("T2", domain.EventCreated, base.Add(time.Hour))
	for _, e := range []*domain.Event{routed, created, other} {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	last, ok, err := repo.LastTimestamp(ctx, "T1")
	if err != nil || !ok {
		t.Fatalf("LastTimestamp: ok=%v err=%v", ok, err)
	}
	if !last.Equal(routed.Timestamp) {
		t.Fatalf("last = %v, want %v", last, routed.Timestamp)
	}

	got, err := repo.ListByTrade(ctx, "T1")
	if err != nil {
		t.Fatalf("ListByTrade: %v", err)
	}
	if len(got) != 2 || got[0].EventType != domain.EventCreated || got[1].EventType != domain.EventRouted {
		t.Fatalf("events = %+v", got)
	}
}
