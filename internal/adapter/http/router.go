package http

import (
	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Service   *Handler
	Rules     *RuleHandler
	Trades    *TradeHandler
	Approvals *ApprovalHandler
}

// Register mounts every route. Middleware is the caller's business.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Service.Health)
	e.GET("/config/lifecycle-policy", h.Service.LifecyclePolicy)

	lc := e.Group("/config/lifecycle-rules")
	lc.GET("", h.Trades.ListLifecycleRules)
	lc.POST("", h.Trades.CreateLifecycleRule)
	lc.PUT("/:id/toggle", h.Trades.ToggleLifecycleRule)

	tp := e.Group("/templates")
	tp.GET("", h.Trades.ListTemplates)
	tp.POST("", h.Trades.CreateTemplate)
	tp.GET("/:id", h.Trades.GetTemplate)
	tp.PUT("/:id/auto-approval", h.Trades.SetTemplateAutoApproval)

	r := e.Group("/approval-rules")
	r.POST("", h.Rules.Create)
	r.GET("", h.Rules.List)
	r.POST("/upload-csv", h.Rules.UploadCSV)
	r.GET("/:id", h.Rules.Get)
	r.PUT("/:id", h.Rules.Update)
	r.DELETE("/:id", h.Rules.Delete)
	r.GET("/:id/versions", h.Rules.Versions)
	r.POST("/:id/activate", h.Rules.Activate)
	r.POST("/:id/new-version", h.Rules.NewVersion)

	e.POST("/simulator/run/lifecycle", h.Rules.Simulate)

	t := e.Group("/trades")
	t.POST("", h.Trades.Book)
	t.POST("/book-from-template", h.Trades.BookFromTemplate)
	t.GET("", h.Trades.List)
	t.GET("/:id", h.Trades.Get)
	t.POST("/:id/amend", h.Trades.Amend)
	t.POST("/:id/cancel", h.Trades.Cancel)
	t.POST("/:id/price", h.Trades.Price)
	t.POST("/:id/deliver", h.Trades.Deliver)
	t.POST("/:id/invoice", h.Trades.Invoice)
	t.POST("/:id/settle", h.Trades.Settle)
	t.POST("/:id/events", h.Trades.ApplyEvent)
	t.GET("/:id/events", h.Trades.Events)
	t.GET("/:id/history", h.Trades.History)

	a := e.Group("/approvals")
	a.GET("/pending", h.Approvals.Pending)
	a.GET("/:tradeId", h.Approvals.Get)
	a.POST("/:tradeId/approve", h.Approvals.Approve)
	a.POST("/:tradeId/reject", h.Approvals.Reject)
}
