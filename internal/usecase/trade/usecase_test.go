package trade

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
	"tradecore/internal/domain/workflow"
	"tradecore/internal/policy"
	"tradecore/internal/testutil/auditmock"
	"tradecore/internal/testutil/rulemock"
	"tradecore/internal/testutil/trademock"
	"tradecore/internal/testutil/uowmock"
	"tradecore/internal/testutil/workflowmock"
)

var (
	alice = actor.New("alice", "TRADER")
	mo    = actor.New("maria", "MIDDLE_OFFICE")
)

// world is an in-memory backing for the func-field mocks.
type world struct {
	trades    map[string]trade.Trade
	versions  []trade.Version
	workflows []workflow.Workflow
	rules     []rule.ApprovalRule
	saves     int
	audit     *auditmock.Memory
	locker    *uowmock.Locker
	policy    *policy.Store
	valuer    trade.Valuer
	lcRules   []trade.LifecycleRule
	templates []trade.DealTemplate
}

func newWorld() *world {
	return &world{
		trades: map[string]trade.Trade{},
		audit:  &auditmock.Memory{},
		locker: &uowmock.Locker{},
		policy: policy.NewStore(policy.Default()),
	}
}

func (w *world) usecase() *Usecase {
	get := func(_ context.Context, id string) (*trade.Trade, error) {
		t, ok := w.trades[id]
		if !ok {
			return nil, apperr.NotFound("trade", id)
		}
		return &t, nil
	}
	trades := &trademock.Repo{
		CreateFn: func(_ context.Context, t *trade.Trade) error {
			w.trades[t.TradeID] = *t
			return nil
		},
		SaveFn: func(_ context.Context, t *trade.Trade) error {
			w.saves++
			w.trades[t.TradeID] = *t
			return nil
		},
		GetByTradeIDFn:          get,
		GetByTradeIDForUpdateFn: get,
		ListFn: func(_ context.Context, f trade.ListFilter) ([]trade.Trade, error) {
			var out []trade.Trade
			for _, t := range w.trades {
				if f.Status == "" || t.Status == f.Status {
					out = append(out, t)
				}
			}
			return out, nil
		},
		CreateVersionFn: func(_ context.Context, v *trade.Version) error {
			w.versions = append(w.versions, *v)
			return nil
		},
		ListVersionsFn: func(_ context.Context, id string) ([]trade.Version, error) {
			var out []trade.Version
			for _, v := range w.versions {
				if v.TradeID == id {
					out = append(out, v)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
			return out, nil
		},
	}
	flows := &workflowmock.Repo{
		CreateFn: func(_ context.Context, wf *workflow.Workflow) error {
			w.workflows = append(w.workflows, *wf)
			return nil
		},
		GetLatestByTradeIDFn: func(_ context.Context, id string) (*workflow.Workflow, error) {
			for i := len(w.workflows) - 1; i >= 0; i-- {
				if w.workflows[i].TradeID == id {
					wf := w.workflows[i]
					return &wf, nil
				}
			}
			return nil, apperr.NotFound("workflow", id)
		},
	}
	rules := &rulemock.Repo{
		ListActiveFn: func(_ context.Context, trig rule.TriggerEvent) ([]rule.ApprovalRule, error) {
			var out []rule.ApprovalRule
			for _, r := range w.rules {
				if r.Status == rule.StatusActive && r.TriggerEvent == trig {
					out = append(out, r)
				}
			}
			return out, nil
		},
	}
	lcRules := &trademock.LifecycleRuleRepo{
		CreateFn: func(_ context.Context, r *trade.LifecycleRule) error {
			r.ID = uint64(len(w.lcRules) + 1)
			w.lcRules = append(w.lcRules, *r)
			return nil
		},
		SaveFn: func(_ context.Context, r *trade.LifecycleRule) error {
			w.lcRules[r.ID-1] = *r
			return nil
		},
		GetFn: func(_ context.Context, id uint64) (*trade.LifecycleRule, error) {
			if id == 0 || id > uint64(len(w.lcRules)) {
				return nil, apperr.NotFound("lifecycle rule", id)
			}
			r := w.lcRules[id-1]
			return &r, nil
		},
		ListFn: func(context.Context) ([]trade.LifecycleRule, error) { return w.lcRules, nil },
		ListByEventFn: func(_ context.Context, ev trade.Trigger) ([]trade.LifecycleRule, error) {
			var out []trade.LifecycleRule
			for _, r := range w.lcRules {
				if r.EventType == ev {
					out = append(out, r)
				}
			}
			return out, nil
		},
	}
	templates := &trademock.TemplateRepo{
		CreateFn: func(_ context.Context, d *trade.DealTemplate) error {
			d.ID = uint64(len(w.templates) + 1)
			w.templates = append(w.templates, *d)
			return nil
		},
		SaveFn: func(_ context.Context, d *trade.DealTemplate) error {
			w.templates[d.ID-1] = *d
			return nil
		},
		GetFn: func(_ context.Context, id uint64) (*trade.DealTemplate, error) {
			if id == 0 || id > uint64(len(w.templates)) {
				return nil, apperr.NotFound("deal template", id)
			}
			d := w.templates[id-1]
			return &d, nil
		},
		ListFn: func(context.Context) ([]trade.DealTemplate, error) { return w.templates, nil },
	}
	repos := uow.Repos{Rules: rules, Trades: trades, Workflows: flows, Audit: w.audit}
	return NewUsecase(Deps{
		Trades:         trades,
		Rules:          rules,
		Workflows:      flows,
		Audit:          w.audit,
		UoW:            uowmock.Passthrough(repos),
		Locker:         w.locker,
		Valuer:         w.valuer,
		Policy:         w.policy,
		LifecycleRules: lcRules,
		Templates:      templates,
	})
}

func (w *world) addRule(id uint64, trig rule.TriggerEvent, cond rule.Condition, roles ...string) {
	r := rule.ApprovalRule{ID: id, RuleName: "r", TriggerEvent: trig, Priority: 1, Status: rule.StatusActive, Version: 1,
		Conditions: []rule.Condition{cond}}
	for i, role := range roles {
		r.Routing = append(r.Routing, rule.RoutingStep{ApprovalLevel: i + 1, ApprovalRole: role})
	}
	w.rules = append(w.rules, r)
}

func brent(qty float64) BookInput {
	return BookInput{Commodity: "brent", InstrumentType: "swap", Counterparty: "ACME", Desk: "oil", Side: "buy", Quantity: qty, Price: 80}
}

func TestBook_NoMatchAutoApproves(t *testing.T) {
	w := newWorld()
	uc := w.usecase()

	dto, err := uc.Book(context.Background(), brent(100), alice)
	require.NoError(t, err)

	assert.Equal(t, trade.StatusApproved, dto.Status)
	assert.Nil(t, dto.Approval)
	assert.Equal(t, "BRENT", dto.Commodity)
	assert.Equal(t, []audit.EventType{audit.EventCreated, audit.EventApproved}, w.audit.Types(dto.TradeID))
	require.Len(t, w.versions, 1)
	assert.Equal(t, 1, w.versions[0].VersionNumber)
	assert.Empty(t, w.workflows)
}

func TestBook_MatchRoutesToApproval(t *testing.T) {
	w := newWorld()
	w.addRule(1, rule.TriggerTradeBook, rule.Condition{FieldCode: "quantity", Operator: rule.OpGt, Value: "1000"}, "RISK")
	uc := w.usecase()

	dto, err := uc.Book(context.Background(), brent(1500), alice)
	require.NoError(t, err)

	assert.Equal(t, trade.StatusPendingApproval, dto.Status)
	require.NotNil(t, dto.Approval)
	assert.Equal(t, "AWAITING_LEVEL(1)", dto.Approval.State)
	assert.Equal(t, "RISK", dto.Approval.AwaitingRole)
	require.Len(t, w.workflows, 1)
	assert.Equal(t, "alice", w.workflows[0].TradeCreatedBy)
	assert.Equal(t, rule.TriggerTradeBook, w.workflows[0].TriggerEvent)
	assert.Equal(t, []audit.EventType{audit.EventCreated, audit.EventRouted}, w.audit.Types(dto.TradeID))
}

func TestBook_PolicyCanKeepTradeCreated(t *testing.T) {
	w := newWorld()
	w.policy.Set(policy.Lifecycle{MaxAmendments: 1, AutoApproveOnNoMatch: false})
	uc := w.usecase()

	dto, err := uc.Book(context.Background(), brent(100), alice)
	require.NoError(t, err)

	assert.Equal(t, trade.StatusCreated, dto.Status)
	assert.Equal(t, []audit.EventType{audit.EventCreated}, w.audit.Types(dto.TradeID))
}

func TestBook_EvaluationErrorStoresNothing(t *testing.T) {
	w := newWorld()
	w.addRule(1, rule.TriggerTradeBook, rule.Condition{FieldCode: "counterparty", Operator: rule.OpGt, Value: "A"}, "RISK")
	uc := w.usecase()

	_, err := uc.Book(context.Background(), brent(100), alice)

	require.Error(t, err)
	assert.True(t, rule.IsEvaluationError(err))
	assert.Empty(t, w.trades)
	assert.Empty(t, w.versions)
}

func TestBook_ValuationFeedsMTMRules(t *testing.T) {
	w := newWorld()
	w.addRule(1, rule.TriggerTradeBook, rule.Condition{FieldCode: "mtm", Operator: rule.OpGt, Value: "10000"}, "RISK", "CFO")
	w.valuer = valuerFunc(func(context.Context, *trade.Trade) (trade.Valuation, error) {
		return trade.Valuation{MTM: 25000, Delta: 0.9}, nil
	})
	uc := w.usecase()

	dto, err := uc.Book(context.Background(), brent(10), alice)
	require.NoError(t, err)

	assert.Equal(t, trade.StatusPendingApproval, dto.Status)
	require.NotNil(t, dto.MTM)
	assert.Equal(t, 25000.0, *dto.MTM)
}

func TestBook_ValuationTimeoutIsEvaluationError(t *testing.T) {
	w := newWorld()
	w.addRule(1, rule.TriggerTradeBook, rule.Condition{FieldCode: "mtm", Operator: rule.OpGt, Value: "10000"}, "RISK")
	w.valuer = valuerFunc(func(context.Context, *trade.Trade) (trade.Valuation, error) {
		return trade.Valuation{}, context.DeadlineExceeded
	})
	uc := w.usecase()

	_, err := uc.Book(context.Background(), brent(10), alice)

	assert.True(t, rule.IsEvaluationError(err))
	assert.Empty(t, w.trades)
}

func TestBook_Rejects(t *testing.T) {
	uc := newWorld().usecase()

	_, err := uc.Book(context.Background(), brent(100), actor.Actor{})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = uc.Book(context.Background(), brent(0), alice)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in := brent(1)
	in.Side = "hold"
	_, err = uc.Book(context.Background(), in, alice)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestMiddleOfficeLifecycle(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{AutoApproveOnNoMatch: false})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)
	id := dto.TradeID

	steps := []struct {
		fn   func(context.Context, string, actor.Actor) (*trade.Trade, error)
		want trade.Status
	}{
		{uc.Price, trade.StatusPriced},
		{uc.Deliver, trade.StatusDelivered},
		{uc.Invoice, trade.StatusInvoiced},
		{uc.Settle, trade.StatusSettled},
	}
	for _, s := range steps {
		got, err := s.fn(ctx, id, mo)
		require.NoError(t, err)
		assert.Equal(t, s.want, got.Status)
	}

	assert.Equal(t, []audit.EventType{
		audit.EventCreated, audit.EventPriced, audit.EventDelivered, audit.EventInvoiced, audit.EventSettled,
	}, w.audit.Types(id))
	assert.Equal(t, []string{"trade:" + id, "trade:" + id, "trade:" + id, "trade:" + id}, w.locker.Keys)

	events, err := uc.Events(ctx, id)
	require.NoError(t, err)
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i].Timestamp.After(events[i-1].Timestamp), "events must be strictly ordered")
	}
	assert.Equal(t, "maria", events[4].PerformedBy)
}

func TestIllegalTransitionWritesNothing(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{AutoApproveOnNoMatch: false})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)
	saves := w.saves

	_, err = uc.Settle(ctx, dto.TradeID, mo)

	require.Error(t, err)
	assert.ErrorIs(t, err, trade.ErrInvalidTransition)
	assert.Equal(t, "invalid transition: SETTLE not allowed from CREATED", err.Error())
	assert.Equal(t, saves, w.saves)
	assert.Equal(t, trade.StatusCreated, w.trades[dto.TradeID].Status)
	assert.Len(t, w.audit.Types(dto.TradeID), 1)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{AutoApproveOnNoMatch: false})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)
	_, err = uc.Price(ctx, dto.TradeID, mo)
	require.NoError(t, err)

	got, err := uc.Cancel(ctx, dto.TradeID, mo, "wrong counterparty")
	require.NoError(t, err)
	assert.Equal(t, trade.StatusCancelled, got.Status)

	events, err := uc.Events(ctx, dto.TradeID)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, audit.EventCancelled, last.EventType)
	assert.Equal(t, "wrong counterparty", last.Comment)
	assert.Equal(t, audit.Change{OldValue: trade.StatusPriced, NewValue: trade.StatusCancelled}, last.ChangeDiff["status"])

	_, err = uc.Cancel(ctx, dto.TradeID, mo, "again")
	assert.ErrorIs(t, err, trade.ErrInvalidTransition)
}

func TestAmend_CreatesVersionAndEnforcesLimit(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)

	qty := 250.0
	got, err := uc.Amend(ctx, dto.TradeID, AmendInput{Quantity: &qty, Reason: "client call"}, alice)
	require.NoError(t, err)

	assert.Equal(t, trade.StatusApproved, got.Status)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, 1, got.AmendCount)
	assert.Equal(t, 250.0, got.Quantity)

	history, err := uc.History(ctx, dto.TradeID)
	require.NoError(t, err)
	require.Len(t, history.Versions, 2)
	v2 := history.Versions[1]
	assert.Equal(t, "client call", v2.AmendmentReason)
	assert.Equal(t, "alice", v2.AmendedBy)
	assert.Equal(t, audit.Change{OldValue: 100.0, NewValue: 250.0}, v2.ChangeDiff["quantity"])
	assert.Equal(t, 100.0, history.Versions[0].Terms.Quantity)
	assert.Equal(t, audit.EventAmended, history.Events[len(history.Events)-1].EventType)

	_, err = uc.Amend(ctx, dto.TradeID, AmendInput{Quantity: &qty, Reason: "again"}, alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, trade.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "amendment limit of 1 reached")
}

func TestAmend_DeskOverrideAndUnlimited(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{MaxAmendments: 1, DeskAmendLimits: map[string]int{"OIL": 0}, AutoApproveOnNoMatch: true})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p := 81.0 + float64(i)
		_, err := uc.Amend(ctx, dto.TradeID, AmendInput{Price: &p, Reason: "reprice"}, alice)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, w.trades[dto.TradeID].AmendCount)
}

func TestAmend_AmendRuleRoutesBackToApproval(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.addRule(9, rule.TriggerAmend, rule.Condition{FieldCode: "notional", Operator: rule.OpGte, Value: "50000"}, "HEAD_TRADER")
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)

	qty := 1000.0
	got, err := uc.Amend(ctx, dto.TradeID, AmendInput{Quantity: &qty, Reason: "upsize"}, alice)
	require.NoError(t, err)

	assert.Equal(t, trade.StatusPendingApproval, got.Status)
	require.NotNil(t, got.Approval)
	assert.Equal(t, "HEAD_TRADER", got.Approval.AwaitingRole)
	require.Len(t, w.workflows, 1)
	assert.Equal(t, rule.TriggerAmend, w.workflows[0].TriggerEvent)
	assert.Equal(t, []audit.EventType{audit.EventCreated, audit.EventApproved, audit.EventAmended, audit.EventRouted}, w.audit.Types(dto.TradeID))
}

func TestAmend_Rejects(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{MaxAmendments: 1})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)
	qty := 5.0

	_, err = uc.Amend(ctx, dto.TradeID, AmendInput{Quantity: &qty}, alice)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = uc.Amend(ctx, dto.TradeID, AmendInput{Quantity: &qty, Reason: "x"}, alice)
	assert.ErrorIs(t, err, trade.ErrInvalidTransition, "CREATED trades cannot be amended")

	_, err = uc.Amend(ctx, "missing", AmendInput{Quantity: &qty, Reason: "x"}, alice)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	zero := 0.0
	_, err = uc.Price(ctx, dto.TradeID, mo)
	require.NoError(t, err)
	_, err = uc.Amend(ctx, dto.TradeID, AmendInput{Quantity: &zero, Reason: "x"}, alice)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestApplyEvent(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{MaxAmendments: 2})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)

	got, err := uc.ApplyEvent(ctx, dto.TradeID, EventInput{EventType: "priced"}, mo)
	require.NoError(t, err)
	assert.Equal(t, trade.StatusPriced, got.Status)

	price := 99.5
	got, err = uc.ApplyEvent(ctx, dto.TradeID, EventInput{EventType: "AMENDED", Amend: &AmendInput{Price: &price, Reason: "fix"}}, alice)
	require.NoError(t, err)
	assert.Equal(t, 99.5, got.Price)

	_, err = uc.ApplyEvent(ctx, dto.TradeID, EventInput{EventType: "AMENDED"}, alice)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = uc.ApplyEvent(ctx, dto.TradeID, EventInput{EventType: "APPROVED"}, alice)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.addRule(1, rule.TriggerTradeBook, rule.Condition{FieldCode: "quantity", Operator: rule.OpGt, Value: "1000"}, "RISK")
	uc := w.usecase()
	pending, err := uc.Book(ctx, brent(5000), alice)
	require.NoError(t, err)
	_, err = uc.Book(ctx, brent(5), alice)
	require.NoError(t, err)

	got, err := uc.Get(ctx, pending.TradeID)
	require.NoError(t, err)
	require.NotNil(t, got.Approval)
	assert.Equal(t, "RISK", got.Approval.AwaitingRole)

	list, err := uc.List(ctx, trade.ListFilter{Status: trade.StatusPendingApproval})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.List(ctx, trade.ListFilter{Status: "OPEN"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = uc.Events(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuditFailureAbortsTransition(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	w.policy.Set(policy.Lifecycle{AutoApproveOnNoMatch: false})
	uc := w.usecase()
	dto, err := uc.Book(ctx, brent(100), alice)
	require.NoError(t, err)
	w.audit.AppendFn = func(context.Context, *audit.Event) error { return errors.New("disk full") }
	saves := w.saves

	_, err = uc.Price(ctx, dto.TradeID, mo)

	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, saves, w.saves)
}

func TestLockFailureSurfaces(t *testing.T) {
	w := newWorld()
	w.locker.LockFn = func(context.Context, string) (func(), error) { return nil, context.DeadlineExceeded }
	uc := w.usecase()

	_, err := uc.Price(context.Background(), "T1", mo)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type valuerFunc func(ctx context.Context, t *trade.Trade) (trade.Valuation, error)

func (f valuerFunc) Value(ctx context.Context, t *trade.Trade) (trade.Valuation, error) { return f(ctx, t) }
