package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
	"tradecore/internal/domain/workflow"
	"tradecore/internal/policy"
	"tradecore/pkg/id"
)

var tracer = otel.Tracer("tradecore/usecase/trade")

// PolicySource serves the live lifecycle policy.
type PolicySource interface {
	Current() policy.Lifecycle
}

type Deps struct {
	Trades    trade.Repository
	Rules     rule.Repository
	Workflows workflow.Repository
	Audit     audit.Repository
	UoW       uow.UnitOfWork
	Locker    uow.Locker
	// Valuer may be nil; rules on mtm/delta then fail evaluation.
	Valuer trade.Valuer
	Policy PolicySource
	// LifecycleRules and Templates may be nil; the built-in table and policy then apply alone.
	LifecycleRules trade.LifecycleRuleRepository
	Templates      trade.TemplateRepository
	Now            func() time.Time
}

type Usecase struct {
	trades    trade.Repository
	rules     rule.Repository
	workflows workflow.Repository
	audit     audit.Repository
	uow       uow.UnitOfWork
	locker    uow.Locker
	valuer    trade.Valuer
	policy    PolicySource
	lcRules   trade.LifecycleRuleRepository
	templates trade.TemplateRepository
	now       func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	pol := d.Policy
	if pol == nil {
		pol = policy.NewStore(policy.Default())
	}
	return &Usecase{
		trades:    d.Trades,
		rules:     d.Rules,
		workflows: d.Workflows,
		audit:     d.Audit,
		uow:       d.UoW,
		locker:    d.Locker,
		valuer:    d.Valuer,
		policy:    pol,
		lcRules:   d.LifecycleRules,
		templates: d.Templates,
		now:       now,
	}
}

func lockKey(tradeID string) string { return "trade:" + tradeID }

// Book creates a trade and routes it. A matching TRADE_BOOK rule sends it to PENDING_APPROVAL
// with a new workflow; otherwise it is auto-approved, or left CREATED when policy says so.
// A rule evaluation error fails the booking and nothing is stored.
func (u *Usecase) Book(ctx context.Context, in BookInput, by actor.Actor) (*TradeDTO, error) {
	if err := by.Require(); err != nil {
		return nil, err
	}
	return u.book(ctx, in.economics(), by, nil)
}

// book stores and routes a trade. tmpl is the deal template it came from, if any; a template
// that does not allow auto-approval leaves an unmatched trade CREATED.
func (u *Usecase) book(ctx context.Context, econ trade.Economics, by actor.Actor, tmpl *trade.DealTemplate) (*TradeDTO, error) {
	ctx, span := tracer.Start(ctx, "trade.book")
	defer span.End()

	if err := validateEconomics(econ); err != nil {
		return nil, err
	}

	status, err := trade.Transition("", trade.TriggerBook)
	if err != nil {
		return nil, err
	}
	now := u.now()
	t := &trade.Trade{
		TradeID:         id.NewID32(),
		Status:          status,
		Version:         1,
		CreatedBy:       by.Name,
		StatusUpdatedAt: now,
	}
	t.SetEconomics(econ)
	span.SetAttributes(attribute.String("trade.id", t.TradeID))

	candidates, err := u.rules.ListActive(ctx, rule.TriggerTradeBook)
	if err != nil {
		return nil, err
	}
	if err := trade.Revalue(ctx, u.valuer, t, candidates); err != nil {
		span.RecordError(err)
		return nil, err
	}
	match, err := rule.Evaluate(candidates, t.Snapshot(), rule.TriggerTradeBook)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var wf *workflow.Workflow
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		trail := audit.NewTrail(r.Audit, u.now)
		if err := r.Trades.Create(ctx, t); err != nil {
			return err
		}
		if err := r.Trades.CreateVersion(ctx, &trade.Version{
			TradeID:         t.TradeID,
			VersionNumber:   1,
			Terms:           econ,
			AmendedBy:       by.Name,
			AmendmentReason: "initial booking",
			ChangeDiff:      trade.DiffEconomics(trade.Economics{}, econ),
		}); err != nil {
			return err
		}
		created := trade.DiffEconomics(trade.Economics{}, econ)
		created["status"] = audit.Change{OldValue: nil, NewValue: t.Status}
		var comment string
		if tmpl != nil {
			comment = fmt.Sprintf("booked from template %d (%s)", tmpl.ID, tmpl.Name)
		}
		if err := u.record(ctx, trail, t.TradeID, audit.EventCreated, by.Name, created, comment); err != nil {
			return err
		}

		switch {
		case match.Matched():
			w, err := u.route(ctx, r, trail, t, match, rule.TriggerTradeBook)
			if err != nil {
				return err
			}
			wf = w
		case u.policy.Current().AutoApproveOnNoMatch && (tmpl == nil || tmpl.AutoApprovalAllowed):
			if err := u.move(ctx, trail, t, trade.TriggerAutoApprove, actor.System, audit.EventApproved, "no approval rule matched"); err != nil {
				return err
			}
		}
		return r.Trades.Save(ctx, t)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("trade_id", t.TradeID).Str("status", string(t.Status)).Str("actor", by.Name).
		Bool("routed", wf != nil).Msg("trade booked")
	return &TradeDTO{Trade: *t, Approval: summarize(wf)}, nil
}

// route opens a workflow for the matched rule and moves the trade to PENDING_APPROVAL.
func (u *Usecase) route(ctx context.Context, r uow.Repos, trail *audit.Trail, t *trade.Trade, match rule.MatchResult, trigger rule.TriggerEvent) (*workflow.Workflow, error) {
	w, err := workflow.New(t.TradeID, t.CreatedBy, trigger, match)
	if err != nil {
		return nil, err
	}
	if err := r.Workflows.Create(ctx, w); err != nil {
		return nil, err
	}
	comment := fmt.Sprintf("rule %d (%s) v%d matched, awaiting %s", match.Rule.ID, match.Rule.RuleName, match.Rule.Version, w.AwaitingRole())
	if err := u.move(ctx, trail, t, trade.TriggerRoute, actor.System, audit.EventRouted, comment); err != nil {
		return nil, err
	}
	return w, nil
}

// move applies one lifecycle trigger to t and records it. t is not saved.
func (u *Usecase) move(ctx context.Context, trail *audit.Trail, t *trade.Trade, trig trade.Trigger, by string, ev audit.EventType, comment string) error {
	from := t.Status
	to, err := trade.Transition(from, trig)
	if err != nil {
		return err
	}
	t.Status = to
	t.StatusUpdatedAt = u.now()
	diff := audit.Diff{}
	if from != to {
		diff["status"] = audit.Change{OldValue: from, NewValue: to}
	}
	if err := u.record(ctx, trail, t.TradeID, ev, by, diff, comment); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("trade_id", t.TradeID).Str("trigger", string(trig)).
		Str("from", string(from)).Str("to", string(to)).Msg("trade transition")
	return nil
}

func (u *Usecase) record(ctx context.Context, trail *audit.Trail, tradeID string, ev audit.EventType, by string, diff audit.Diff, comment string) error {
	e := &audit.Event{TradeID: tradeID, EventType: ev, PerformedBy: by, ChangeDiff: diff, Comment: comment}
	substituted, err := trail.Append(ctx, e)
	if err != nil {
		return err
	}
	if substituted {
		zerolog.Ctx(ctx).Warn().Str("trade_id", tradeID).Str("event_type", string(ev)).
			Time("recorded_at", e.Timestamp).Msg("audit timestamp out of order, substituted")
	}
	return nil
}

var simpleEvents = map[trade.Trigger]audit.EventType{
	trade.TriggerPrice:   audit.EventPriced,
	trade.TriggerDeliver: audit.EventDelivered,
	trade.TriggerInvoice: audit.EventInvoiced,
	trade.TriggerSettle:  audit.EventSettled,
	trade.TriggerCancel:  audit.EventCancelled,
}

func (u *Usecase) Price(ctx context.Context, tradeID string, by actor.Actor) (*trade.Trade, error) {
	return u.apply(ctx, tradeID, trade.TriggerPrice, by, "")
}

func (u *Usecase) Deliver(ctx context.Context, tradeID string, by actor.Actor) (*trade.Trade, error) {
	return u.apply(ctx, tradeID, trade.TriggerDeliver, by, "")
}

func (u *Usecase) Invoice(ctx context.Context, tradeID string, by actor.Actor) (*trade.Trade, error) {
	return u.apply(ctx, tradeID, trade.TriggerInvoice, by, "")
}

func (u *Usecase) Settle(ctx context.Context, tradeID string, by actor.Actor) (*trade.Trade, error) {
	return u.apply(ctx, tradeID, trade.TriggerSettle, by, "")
}

func (u *Usecase) Cancel(ctx context.Context, tradeID string, by actor.Actor, reason string) (*trade.Trade, error) {
	return u.apply(ctx, tradeID, trade.TriggerCancel, by, reason)
}

// ApplyEvent runs a lifecycle event named the way clients name them (PRICED, SETTLED, ...).
// Approval outcomes are not events; they only come from the approval workflow.
func (u *Usecase) ApplyEvent(ctx context.Context, tradeID string, in EventInput, by actor.Actor) (*trade.Trade, error) {
	trig, err := trade.ParseEvent(strings.ToUpper(strings.TrimSpace(in.EventType)))
	if err != nil {
		return nil, apperr.Validation("eventType", err.Error())
	}
	if trig == trade.TriggerAmend {
		if in.Amend == nil {
			return nil, apperr.Validation("amend", "AMENDED event needs the amended terms")
		}
		dto, err := u.Amend(ctx, tradeID, *in.Amend, by)
		if err != nil {
			return nil, err
		}
		return &dto.Trade, nil
	}
	return u.apply(ctx, tradeID, trig, by, in.Comment)
}

// apply serialises on the trade, then moves it and writes the audit event in one transaction.
func (u *Usecase) apply(ctx context.Context, tradeID string, trig trade.Trigger, by actor.Actor, comment string) (*trade.Trade, error) {
	ctx, span := tracer.Start(ctx, "trade.transition")
	defer span.End()
	span.SetAttributes(attribute.String("trade.id", tradeID), attribute.String("trade.trigger", string(trig)))

	if err := by.Require(); err != nil {
		return nil, err
	}
	ev, ok := simpleEvents[trig]
	if !ok {
		return nil, &trade.InvalidTransitionError{Trigger: trig, Reason: "not a direct lifecycle event"}
	}
	lcRules, err := u.lifecycleRules(ctx, trig)
	if err != nil {
		return nil, err
	}
	unlock, err := u.locker.Lock(ctx, lockKey(tradeID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *trade.Trade
	err = u.uow.WithinTradeTx(ctx, tradeID, func(r uow.Repos, t *trade.Trade) error {
		if err := checkOccurrences(ctx, r, t, ev, lcRules); err != nil {
			return err
		}
		trail := audit.NewTrail(r.Audit, u.now)
		if err := u.move(ctx, trail, t, trig, by.Name, ev, comment); err != nil {
			return err
		}
		if err := r.Trades.Save(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, tradeID string) (*TradeDTO, error) {
	t, err := u.trades.GetByTradeID(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	dto := &TradeDTO{Trade: *t}
	if t.Status == trade.StatusPendingApproval {
		w, err := u.workflows.GetLatestByTradeID(ctx, tradeID)
		if err != nil {
			return nil, err
		}
		dto.Approval = summarize(w)
	}
	return dto, nil
}

func (u *Usecase) List(ctx context.Context, f trade.ListFilter) ([]trade.Trade, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, apperr.Validation("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	return u.trades.List(ctx, f)
}

// Events returns the trade's audit trail, oldest first.
func (u *Usecase) Events(ctx context.Context, tradeID string) ([]audit.Event, error) {
	if _, err := u.trades.GetByTradeID(ctx, tradeID); err != nil {
		return nil, err
	}
	return audit.NewTrail(u.audit, u.now).QueryByTrade(ctx, tradeID)
}

// History is the audit trail together with every stored version of the terms.
func (u *Usecase) History(ctx context.Context, tradeID string) (*History, error) {
	events, err := u.Events(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	versions, err := u.trades.ListVersions(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return &History{TradeID: tradeID, Events: events, Versions: versions}, nil
}

func validStatus(s trade.Status) bool {
	switch s {
	case trade.StatusCreated, trade.StatusPriced, trade.StatusPendingApproval, trade.StatusApproved,
		trade.StatusRejected, trade.StatusCancelled, trade.StatusDelivered, trade.StatusInvoiced, trade.StatusSettled:
		return true
	}
	return false
}

func validateEconomics(e trade.Economics) error {
	switch {
	case e.Commodity == "":
		return apperr.Validation("commodity", "is required")
	case e.InstrumentType == "":
		return apperr.Validation("instrumentType", "is required")
	case e.Counterparty == "":
		return apperr.Validation("counterparty", "is required")
	case e.Quantity <= 0:
		return apperr.Validation("quantity", "must be greater than 0")
	case e.Price < 0:
		return apperr.Validation("price", "must be greater than or equal to 0")
	case e.Side != "" && e.Side != "BUY" && e.Side != "SELL":
		return apperr.Validation("side", "must be BUY or SELL")
	}
	return nil
}
