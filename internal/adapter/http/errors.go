package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"tradecore/internal/domain/apperr"
	"tradecore/internal/domain/rule"
	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/workflow"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the more specific sentinels come first.
var errorMappings = []errorMapping{
	{apperr.ErrUnauthorized, http.StatusUnauthorized, "ACTOR_REQUIRED"},
	{workflow.ErrSelfApprovalDenied, http.StatusForbidden, "SELF_APPROVAL_DENIED"},
	{workflow.ErrRoleMismatch, http.StatusForbidden, "ROLE_MISMATCH"},
	{workflow.ErrOutOfOrderDecision, http.StatusConflict, "OUT_OF_ORDER_DECISION"},
	{workflow.ErrWorkflowAlreadyTerminal, http.StatusConflict, "WORKFLOW_ALREADY_TERMINAL"},
	{trade.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{rule.ErrEvaluation, http.StatusUnprocessableEntity, "RULE_EVALUATION_ERROR"},
	{rule.ErrConcurrentActivation, http.StatusConflict, "CONCURRENT_ACTIVATION"},
	{rule.ErrNotDraft, http.StatusConflict, "RULE_NOT_DRAFT"},
	{rule.ErrNotActive, http.StatusConflict, "RULE_NOT_ACTIVE"},
	{rule.ErrRetired, http.StatusConflict, "RULE_RETIRED"},
	{apperr.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperr.ErrConflict, http.StatusConflict, "CONFLICT"},
}

// respondError maps a usecase error onto a status and a stable body. Messages are the
// domain's own, so clients can match on substrings like "self-approval" and "role".
func respondError(c echo.Context, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			body := ErrorResponse{Error: err.Error(), Code: m.code}
			var ve *apperr.ValidationError
			if errors.As(err, &ve) {
				body.Details = []FieldError{{Field: ve.Field, Message: ve.Message}}
			}
			return c.JSON(m.status, body)
		}
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "BAD_REQUEST"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_FAILED",
		Details: ToFieldErrors(err),
	})
}

// bindAndValidate is the usual Bind → Validate pair; it writes the response on failure
// and reports whether the handler should continue.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}
