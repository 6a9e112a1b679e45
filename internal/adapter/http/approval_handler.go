package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	ucApproval "tradecore/internal/usecase/approval"
)

type ApprovalHandler struct{ uc *ucApproval.Usecase }

func NewApprovalHandler(uc *ucApproval.Usecase) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

// Level 0 (or omitted) decides the level currently awaited.
type decisionReq struct {
	Level  int    `json:"level"  validate:"gte=0"`
	Reason string `json:"reason"`
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req decisionReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Approve(c.Request().Context(), c.Param("tradeId"), req.Level, by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Reject(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req decisionReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), c.Param("tradeId"), req.Level, strings.TrimSpace(req.Reason), by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApprovalHandler) Get(c echo.Context) error {
	w, err := h.uc.Get(c.Request().Context(), c.Param("tradeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"state":    w.State(),
		"workflow": w,
	})
}

func (h *ApprovalHandler) Pending(c echo.Context) error {
	list, err := h.uc.Pending(c.Request().Context(), strings.TrimSpace(c.QueryParam("role")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
