package trade

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/trade"
)

type TemplateInput struct {
	Name                string
	Defaults            BookInput
	AutoApprovalAllowed bool
}

// TemplateBookInput names a template; any non-zero term in Overrides replaces its default.
type TemplateBookInput struct {
	TemplateID uint64
	Overrides  BookInput
}

func (u *Usecase) ListTemplates(ctx context.Context) ([]trade.DealTemplate, error) {
	return u.templates.List(ctx)
}

func (u *Usecase) GetTemplate(ctx context.Context, id uint64) (*trade.DealTemplate, error) {
	return u.templates.Get(ctx, id)
}

func (u *Usecase) CreateTemplate(ctx context.Context, in TemplateInput, by actor.Actor) (*trade.DealTemplate, error) {
	if err := by.Require(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("templateName", "is required")
	}
	defaults := in.Defaults.economics()
	switch {
	case defaults.Quantity < 0:
		return nil, apperr.Validation("defaults.quantity", "must be greater than or equal to 0")
	case defaults.Price < 0:
		return nil, apperr.Validation("defaults.price", "must be greater than or equal to 0")
	case defaults.Side != "" && defaults.Side != "BUY" && defaults.Side != "SELL":
		return nil, apperr.Validation("defaults.side", "must be BUY or SELL")
	}

	existing, err := u.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range existing {
		if strings.EqualFold(d.Name, name) {
			return nil, apperr.Conflict("deal template %q already exists", d.Name)
		}
	}

	d := &trade.DealTemplate{
		Name:                name,
		Defaults:            defaults,
		AutoApprovalAllowed: in.AutoApprovalAllowed,
		CreatedBy:           by.Name,
	}
	if err := u.templates.Create(ctx, d); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("template_id", d.ID).Str("template", d.Name).Str("actor", by.Name).Msg("deal template created")
	return d, nil
}

func (u *Usecase) SetTemplateAutoApproval(ctx context.Context, id uint64, enabled bool, by actor.Actor) (*trade.DealTemplate, error) {
	if err := by.Require(); err != nil {
		return nil, err
	}
	d, err := u.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.AutoApprovalAllowed = enabled
	if err := u.templates.Save(ctx, d); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Uint64("template_id", d.ID).Bool("auto_approval", enabled).Str("actor", by.Name).Msg("deal template updated")
	return d, nil
}

// BookFromTemplate merges the request over the template's defaults and books the result
// exactly as Book would.
func (u *Usecase) BookFromTemplate(ctx context.Context, in TemplateBookInput, by actor.Actor) (*TradeDTO, error) {
	if err := by.Require(); err != nil {
		return nil, err
	}
	tmpl, err := u.templates.Get(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	return u.book(ctx, mergeTerms(tmpl.Defaults, in.Overrides.economics()), by, tmpl)
}

func mergeTerms(base, over trade.Economics) trade.Economics {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.Commodity, over.Commodity)
	pick(&base.InstrumentType, over.InstrumentType)
	pick(&base.Counterparty, over.Counterparty)
	pick(&base.Portfolio, over.Portfolio)
	pick(&base.Desk, over.Desk)
	pick(&base.Side, over.Side)
	pick(&base.Currency, over.Currency)
	if over.Quantity != 0 {
		base.Quantity = over.Quantity
	}
	if over.Price != 0 {
		base.Price = over.Price
	}
	return base
}
