package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"tradecore/internal/domain/actor"
	"tradecore/internal/domain/trade"
	ucTrade "tradecore/internal/usecase/trade"
)

type TradeHandler struct{ uc *ucTrade.Usecase }

func NewTradeHandler(uc *ucTrade.Usecase) *TradeHandler { return &TradeHandler{uc: uc} }

type bookTradeReq struct {
	Commodity      string  `json:"commodity"      validate:"notblank"`
	InstrumentType string  `json:"instrumentType" validate:"notblank"`
	Counterparty   string  `json:"counterparty"   validate:"notblank"`
	Portfolio      string  `json:"portfolio"`
	Desk           string  `json:"desk"`
	Side           string  `json:"side"           validate:"side"`
	Currency       string  `json:"currency"       validate:"omitempty,len=3"`
	Quantity       float64 `json:"quantity"       validate:"gt=0"`
	Price          float64 `json:"price"          validate:"gte=0"`
}

type amendTradeReq struct {
	ucTrade.AmendInput
	Reason string `json:"amendmentReason" validate:"notblank"`
}

type cancelTradeReq struct {
	Reason string `json:"reason"`
}

type eventReq struct {
	EventType string              `json:"eventType" validate:"notblank"`
	Comment   string              `json:"comment"`
	Amend     *ucTrade.AmendInput `json:"amend"`
}

func (h *TradeHandler) Book(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req bookTradeReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Book(c.Request().Context(), ucTrade.BookInput(req), by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *TradeHandler) Amend(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req amendTradeReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := req.AmendInput
	in.Reason = req.Reason
	dto, err := h.uc.Amend(c.Request().Context(), c.Param("id"), in, by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *TradeHandler) Cancel(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req cancelTradeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.uc.Cancel(c.Request().Context(), c.Param("id"), by, strings.TrimSpace(req.Reason))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

type transitionFunc func(ctx context.Context, tradeID string, by actor.Actor) (*trade.Trade, error)

func (h *TradeHandler) transition(fn transitionFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		by, ok, err := requireActor(c)
		if !ok {
			return err
		}
		t, err := fn(c.Request().Context(), c.Param("id"), by)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

func (h *TradeHandler) Price(c echo.Context) error   { return h.transition(h.uc.Price)(c) }
func (h *TradeHandler) Deliver(c echo.Context) error { return h.transition(h.uc.Deliver)(c) }
func (h *TradeHandler) Invoice(c echo.Context) error { return h.transition(h.uc.Invoice)(c) }
func (h *TradeHandler) Settle(c echo.Context) error  { return h.transition(h.uc.Settle)(c) }

func (h *TradeHandler) ApplyEvent(c echo.Context) error {
	by, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req eventReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	t, err := h.uc.ApplyEvent(c.Request().Context(), c.Param("id"), ucTrade.EventInput(req), by)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TradeHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *TradeHandler) List(c echo.Context) error {
	f := trade.ListFilter{
		Status: trade.Status(strings.ToUpper(c.QueryParam("status"))),
		Desk:   strings.ToUpper(c.QueryParam("desk")),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "invalid limit")
		}
		f.Limit = n
	}
	trades, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	if trades == nil {
		trades = []trade.Trade{}
	}
	return c.JSON(http.StatusOK, trades)
}

func (h *TradeHandler) Events(c echo.Context) error {
	events, err := h.uc.Events(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *TradeHandler) History(c echo.Context) error {
	hist, err := h.uc.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, hist)
}
