package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"tradecore/internal/domain/trade"
	ucTrade "tradecore/internal/usecase/trade"
)

type lifecycleRuleReq struct {
	Name          string `json:"name"          validate:"max=128"`
	EventType     string `json:"eventType"     validate:"notblank"`
	FromStatus    string `json:"fromStatus"    validate:"notblank"`
	ToStatus      string `json:"toStatus"`
	Desk          string `json:"desk"`
	MaxOccurrence int    `json:"maxOccurrence" validate:"gte=1"`
	// Enabled defaults to true.
	Enabled *bool `json:"enabled"`
}

func (h *TradeHandler) ListLifecycleRules(c echo.Context) error {
	rules, err := h.uc.ListLifecycleRules(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if rules == nil {
		rules = []trade.LifecycleRule{}
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *TradeHandler) CreateLifecycleRule(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req lifecycleRuleReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := ucTrade.LifecycleRuleInput{
		Name:          req.Name,
		EventType:     req.EventType,
		FromStatus:    req.FromStatus,
		ToStatus:      req.ToStatus,
		Desk:          req.Desk,
		MaxOccurrence: req.MaxOccurrence,
		Enabled:       req.Enabled == nil || *req.Enabled,
	}
	lr, err := h.uc.CreateLifecycleRule(c.Request().Context(), in, by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *TradeHandler) ToggleLifecycleRule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid lifecycle rule id")
	}
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	lr, err := h.uc.ToggleLifecycleRule(c.Request().Context(), id, by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, lr)
}

type templateReq struct {
	Name                string            `json:"templateName"        validate:"notblank,max=128"`
	Defaults            ucTrade.BookInput `json:"defaults"`
	AutoApprovalAllowed bool              `json:"autoApprovalAllowed"`
}

type bookFromTemplateReq struct {
	TemplateID uint64 `json:"templateId" validate:"gt=0"`
	ucTrade.BookInput
	// BuySell is the booking screen's name for side.
	BuySell string `json:"buySell"`
}

func (h *TradeHandler) ListTemplates(c echo.Context) error {
	list, err := h.uc.ListTemplates(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if list == nil {
		list = []trade.DealTemplate{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TradeHandler) GetTemplate(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid template id")
	}
	d, err := h.uc.GetTemplate(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *TradeHandler) CreateTemplate(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req templateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	d, err := h.uc.CreateTemplate(c.Request().Context(), ucTrade.TemplateInput(req), by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// SetTemplateAutoApproval takes ?enabled=true|false.
func (h *TradeHandler) SetTemplateAutoApproval(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid template id")
	}
	enabled, err := strconv.ParseBool(c.QueryParam("enabled"))
	if err != nil {
		return badRequest(c, "enabled must be true or false")
	}
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	d, err := h.uc.SetTemplateAutoApproval(c.Request().Context(), id, enabled, by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *TradeHandler) BookFromTemplate(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req bookFromTemplateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	over := req.BookInput
	if over.Side == "" {
		over.Side = req.BuySell
	}
	dto, err := h.uc.BookFromTemplate(c.Request().Context(), ucTrade.TemplateBookInput{TemplateID: req.TemplateID, Overrides: over}, by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}
