package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	domain "tradecore/internal/domain/rule"
	ucRule "tradecore/internal/usecase/rule"
)

type RuleHandler struct{ uc *ucRule.Usecase }

func NewRuleHandler(uc *ucRule.Usecase) *RuleHandler { return &RuleHandler{uc: uc} }

type conditionReq struct {
	FieldCode string     `json:"fieldCode" validate:"notblank"`
	Operator  string     `json:"operator"  validate:"operator"`
	Value     flexString `json:"value"`
	// Value1 is the older name for value.
	Value1 flexString `json:"value1"`
}

type routingReq struct {
	ApprovalRole  string `json:"approvalRole"  validate:"notblank"`
	ApprovalLevel int    `json:"approvalLevel" validate:"gte=1"`
}

type ruleReq struct {
	RuleName     string         `json:"ruleName"     validate:"notblank,max=128"`
	TriggerEvent string         `json:"triggerEvent" validate:"trigger"`
	Priority     int            `json:"priority"     validate:"gte=0"`
	Conditions   []conditionReq `json:"conditions"   validate:"dive"`
	Routing      []routingReq   `json:"routing"      validate:"min=1,dive"`
}

func (r ruleReq) input() ucRule.RuleInput {
	in := ucRule.RuleInput{
		RuleName:     strings.TrimSpace(r.RuleName),
		TriggerEvent: domain.TriggerEvent(strings.ToUpper(r.TriggerEvent)),
		Priority:     r.Priority,
	}
	for _, c := range r.Conditions {
		v := c.Value
		if v == "" {
			v = c.Value1
		}
		in.Conditions = append(in.Conditions, domain.Condition{
			FieldCode: strings.TrimSpace(c.FieldCode),
			Operator:  domain.Operator(c.Operator),
			Value:     string(v),
		})
	}
	for _, s := range r.Routing {
		in.Routing = append(in.Routing, domain.RoutingStep{
			ApprovalLevel: s.ApprovalLevel,
			ApprovalRole:  strings.ToUpper(strings.TrimSpace(s.ApprovalRole)),
		})
	}
	return in
}

func (h *RuleHandler) Create(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req ruleReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	r, err := h.uc.Create(c.Request().Context(), req.input(), by.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *RuleHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid rule id")
	}
	if _, ok, err := requireActor(c); !ok {
		return err
	}
	var req ruleReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	r, err := h.uc.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RuleHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid rule id")
	}
	r, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RuleHandler) List(c echo.Context) error {
	f := domain.ListFilter{
		Status:       domain.Status(strings.ToUpper(c.QueryParam("status"))),
		TriggerEvent: domain.TriggerEvent(strings.ToUpper(c.QueryParam("triggerEvent"))),
		FamilyID:     c.QueryParam("familyId"),
	}
	rules, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	if rules == nil {
		rules = []domain.ApprovalRule{}
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *RuleHandler) Versions(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid rule id")
	}
	rules, err := h.uc.Versions(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *RuleHandler) Activate(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid rule id")
	}
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	r, err := h.uc.Activate(c.Request().Context(), id, by.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RuleHandler) NewVersion(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid rule id")
	}
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	r, err := h.uc.NewVersion(c.Request().Context(), id, by.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *RuleHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid rule id")
	}
	if _, ok, err := requireActor(c); !ok {
		return err
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadCSV takes either a multipart "file" field or a raw text/csv body.
func (h *RuleHandler) UploadCSV(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var src io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return badRequest(c, "missing multipart field \"file\"")
		}
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "unreadable upload")
		}
		defer f.Close()
		src = f
	}
	rules, err := h.uc.UploadCSV(c.Request().Context(), src, by.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"created": len(rules), "rules": rules})
}

type simulateReq struct {
	TriggerEvent string         `json:"triggerEvent" validate:"omitempty,trigger"`
	Trade        map[string]any `json:"trade"`
	TradeID      string         `json:"tradeId"`
	RuleIDs      []uint64       `json:"ruleIds"`
	Rules        []ruleReq      `json:"rules" validate:"dive"`
}

func (h *RuleHandler) Simulate(c echo.Context) error {
	var req simulateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := ucRule.SimulateInput{
		TriggerEvent: domain.TriggerEvent(strings.ToUpper(req.TriggerEvent)),
		Trade:        req.Trade,
		TradeID:      strings.TrimSpace(req.TradeID),
		RuleIDs:      req.RuleIDs,
	}
	for _, r := range req.Rules {
		in.Rules = append(in.Rules, r.input())
	}
	res, err := h.uc.Simulate(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
