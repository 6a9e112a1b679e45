package mysql

import (
	"context"
	"errors"
	"testing"

	"tradecore/internal/domain/apperr"
	domain "tradecore/internal/domain/trade"
)

func TestLifecycleRule_CreateToggleAndListByEvent(t *testing.T) {
	db := openTestDB(t)
	repo := NewLifecycleRuleRepository(db)
	ctx := context.Background()

	rules := []*domain.LifecycleRule{
		{EventType: domain.TriggerAmend, FromStatus: domain.StatusPriced, ToStatus: domain.StatusPriced, MaxOccurrence: 2, Enabled: true},
		{EventType: domain.TriggerAmend, FromStatus: domain.StatusPriced, ToStatus: domain.StatusPriced, Desk: "POWER", MaxOccurrence: 1},
		{EventType: domain.TriggerPrice, FromStatus: domain.StatusCreated, ToStatus: domain.StatusPriced, MaxOccurrence: 1, Enabled: true},
	}
	for _, r := range rules {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.Get(ctx, rules[1].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Enabled || got.Desk != "POWER" {
		t.Fatalf("disabled rule not stored as given: %+v", got)
	}
	got.Enabled = true
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}

	amend, err := repo.ListByEvent(ctx, domain.TriggerAmend)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(amend) != 2 || !amend[1].Enabled {
		t.Fatalf("unexpected AMEND rules: %+v", amend)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("want 3 rules, got %d", len(all))
	}

	dup := &domain.LifecycleRule{EventType: domain.TriggerAmend, FromStatus: domain.StatusPriced, ToStatus: domain.StatusPriced, Desk: "POWER", MaxOccurrence: 4}
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatal("a second rule on the same key should be refused")
	}

	if _, err := repo.Get(ctx, 404); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTemplate_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	in := &domain.DealTemplate{
		Name: "Brent swap",
		Defaults: domain.Economics{
			Commodity: "BRENT", InstrumentType: "SWAP", Desk: "CRUDE", Currency: "USD", Quantity: 100, Price: 82.5,
		},
	}
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &domain.DealTemplate{Name: "Anything", Defaults: domain.Economics{Commodity: "GAS"}, AutoApprovalAllowed: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Defaults != in.Defaults || got.AutoApprovalAllowed {
		t.Errorf("unexpected row: %+v", got)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Anything" {
		t.Fatalf("want templates by name, got %+v", list)
	}

	if _, err := repo.Get(ctx, 404); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
