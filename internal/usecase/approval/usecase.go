package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/audit"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
	"tradecore/internal/domain/workflow"
)

var tracer = otel.Tracer("tradecore/usecase/approval")

type Usecase struct {
	workflows workflow.Repository
	uow       uow.UnitOfWork
	locker    uow.Locker
	now       func() time.Time
}

// NewUsecase: decisions run under the per-trade lock inside a UoW transaction.
func NewUsecase(workflows workflow.Repository, tx uow.UnitOfWork, locker uow.Locker, now func() time.Time) *Usecase {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{workflows: workflows, uow: tx, locker: locker, now: now}
}

func (u *Usecase) Approve(ctx context.Context, tradeID string, level int, by actor.Actor) (*DecisionDTO, error) {
	return u.Decide(ctx, DecideInput{TradeID: tradeID, Level: level, Decision: workflow.DecisionApprove}, by)
}

func (u *Usecase) Reject(ctx context.Context, tradeID string, level int, reason string, by actor.Actor) (*DecisionDTO, error) {
	return u.Decide(ctx, DecideInput{TradeID: tradeID, Level: level, Decision: workflow.DecisionReject, Reason: reason}, by)
}

// Decide records by's verdict on the trade's open workflow. When the workflow completes,
// the trade moves to APPROVED or REJECTED and one audit event is written, all in one transaction.
func (u *Usecase) Decide(ctx context.Context, in DecideInput, by actor.Actor) (*DecisionDTO, error) {
	ctx, span := tracer.Start(ctx, "approval.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("trade.id", in.TradeID),
		attribute.String("approval.decision", string(in.Decision)),
		attribute.Int("approval.level", in.Level),
	)

	if err := by.Require(); err != nil {
		return nil, err
	}
	unlock, err := u.locker.Lock(ctx, "trade:"+in.TradeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *DecisionDTO
	err = u.uow.WithinTradeTx(ctx, in.TradeID, func(r uow.Repos, t *trade.Trade) error {
		w, err := r.Workflows.GetLatestByTradeID(ctx, t.TradeID)
		if err != nil {
			return err
		}
		level := in.Level
		if level == 0 && !w.Terminal() {
			// The caller did not say which level; decide on the one being waited for.
			level = w.CurrentLevel
			span.SetAttributes(attribute.Int("approval.level", level))
			zerolog.Ctx(ctx).Info().Str("trade_id", t.TradeID).Str("actor", by.Name).
				Int("approval_level", level).Msg("approval level not given, using current level")
		}
		if err := w.Decide(workflow.DecideInput{
			Level:     level,
			Role:      by.Role,
			Decision:  in.Decision,
			DecidedBy: by.Name,
			Reason:    in.Reason,
			At:        u.now(),
		}); err != nil {
			return err
		}
		if err := r.Workflows.Save(ctx, w); err != nil {
			return err
		}

		switch w.Status {
		case workflow.StatusApproved:
			err = u.finish(ctx, r, t, trade.TriggerApprove, audit.EventApproved, by.Name,
				fmt.Sprintf("approved at level %d of %d by %s", level, len(w.Ladder), by.Role))
		case workflow.StatusRejected:
			err = u.finish(ctx, r, t, trade.TriggerReject, audit.EventRejected, by.Name, in.Reason)
		}
		if err != nil {
			return err
		}
		out = &DecisionDTO{Workflow: w, State: w.State(), TradeStatus: t.Status}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Warn().Err(err).Str("trade_id", in.TradeID).Str("actor", by.Name).
			Str("role", by.Role).Str("decision", string(in.Decision)).Msg("approval decision refused")
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("trade_id", in.TradeID).Str("actor", by.Name).Str("decision", string(in.Decision)).
		Str("state", out.State).Str("trade_status", string(out.TradeStatus)).Msg("approval decision recorded")
	return out, nil
}

func (u *Usecase) finish(ctx context.Context, r uow.Repos, t *trade.Trade, trig trade.Trigger, ev audit.EventType, by, comment string) error {
	from := t.Status
	to, err := trade.Transition(from, trig)
	if err != nil {
		return err
	}
	t.Status = to
	t.StatusUpdatedAt = u.now()
	trail := audit.NewTrail(r.Audit, u.now)
	e := &audit.Event{
		TradeID:     t.TradeID,
		EventType:   ev,
		PerformedBy: by,
		ChangeDiff:  audit.Diff{"status": {OldValue: from, NewValue: to}},
		Comment:     comment,
	}
	if _, err := trail.Append(ctx, e); err != nil {
		return err
	}
	return r.Trades.Save(ctx, t)
}

// Get returns the trade's most recent workflow.
func (u *Usecase) Get(ctx context.Context, tradeID string) (*workflow.Workflow, error) {
	return u.workflows.GetLatestByTradeID(ctx, tradeID)
}

// Pending lists workflows waiting on role. An empty role lists all of them.
func (u *Usecase) Pending(ctx context.Context, role string) ([]PendingDTO, error) {
	ws, err := u.workflows.ListAwaiting(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PendingDTO, 0, len(ws))
	for i := range ws {
		w := &ws[i]
		awaiting := w.AwaitingRole()
		if role != "" && !strings.EqualFold(awaiting, role) {
			continue
		}
		out = append(out, PendingDTO{
			TradeID:      w.TradeID,
			WorkflowID:   w.WorkflowID,
			State:        w.State(),
			Level:        w.CurrentLevel,
			AwaitingRole: awaiting,
			RuleID:       w.MatchedRuleID,
			RuleName:     w.MatchedRuleName,
			CreatedBy:    w.TradeCreatedBy,
		})
	}
	return out, nil
}
