package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Application-level error codes. HTTP statuses overlap (several domain
// categories map to 409), so the Code disambiguates for API consumers.
const (
	CodeBadRequest           = 400
	CodeUnauthenticated      = 401
	CodeForbidden            = 403
	CodeNotFound             = 404
	CodeInvalidState         = 4090
	CodeInvalidTransition    = 4091
	CodeReferentialIntegrity = 4092
	CodeValidation           = 422
	CodeServerError          = 500
)

// AppError represents a structured application error with HTTP status,
// error code and an optional machine-readable details payload.
type AppError struct {
	HTTPStatus int         // HTTP status code (e.g. 400, 404, 500)
	Code       int         // Application-level error code
	Message    string      // Human-readable error message
	Details    interface{} // Optional structured context (e.g. {from, to})
}

func (e *AppError) Error() string {
	return e.Message
}

// --- Error constructors (domain taxonomy) ---

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: CodeBadRequest, Message: msg}
}

// NewUnauthenticated indicates no resolvable caller identity.
func NewUnauthenticated(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: msg}
}

// NewForbidden indicates the caller lacks the required role or ownership.
func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// NewValidation indicates structurally invalid input. The message names the
// violated rule and is surfaced verbatim to the caller.
func NewValidation(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnprocessableEntity, Code: CodeValidation, Message: msg}
}

// NewInvalidState indicates an operation not permitted given the current
// stage/status of the target.
func NewInvalidState(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeInvalidState, Message: msg}
}

// NewInvalidTransition is the forward-only stage rule violation. It carries
// the attempted {from, to} pair for diagnostics.
func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		HTTPStatus: http.StatusConflict,
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("invalid stage transition from %q to %q", from, to),
		Details:    map[string]string{"from": from, "to": to},
	}
}

// NewReferentialIntegrity indicates a delete blocked by existing references.
func NewReferentialIntegrity(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: CodeReferentialIntegrity, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeServerError, Message: msg}
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error sends an error response. If err is an *AppError, its code, status and
// details are used; otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeServerError,
		Message: err.Error(),
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: CodeBadRequest, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: CodeUnauthenticated, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: CodeForbidden, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: CodeServerError, Message: msg})
}
