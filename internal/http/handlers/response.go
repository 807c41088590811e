// Package handlers implements the bridge endpoints through which a
// presentation layer drives the session and reads committed list state.
//
// Every failure is answered with an ErrorResponse. Backend errors keep the
// server's own message so the UI can show it verbatim.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-bizdata/internal/http/middleware"
	"github.com/tbourn/go-bizdata/internal/listquery"
	"github.com/tbourn/go-bizdata/internal/services"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	// UpstreamStatus is the backend's HTTP status when the error came from
	// the backend (0 = unreachable).
	UpstreamStatus *int `json:"upstream_status,omitempty"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = middleware.RequestIDFrom(c)
	if resp.RequestID == "" {
		resp.RequestID = c.Writer.Header().Get("X-Request-ID")
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail, used by the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps err onto a status and code.
func failErr(c *gin.Context, err error) {
	status, resp := describe(err)
	failWith(c, status, resp)
}

// describe classifies err. Backend HTTP errors keep their 4xx status; backend
// 5xx becomes 502 so it is not mistaken for a bridge fault.
func describe(err error) (int, ErrorResponse) {
	if te, ok := transport.AsError(err); ok {
		upstream := te.Status
		resp := ErrorResponse{Message: te.Message, UpstreamStatus: &upstream}
		switch {
		case te.IsTransport() && errors.Is(err, context.DeadlineExceeded):
			resp.Code = ErrCodeUpstreamTimeout
			return http.StatusGatewayTimeout, resp
		case te.IsTransport():
			resp.Code = ErrCodeUpstreamUnreachable
			return http.StatusBadGateway, resp
		case te.Status >= 500:
			resp.Code = ErrCodeUpstream
			return http.StatusBadGateway, resp
		default:
			resp.Code = codeForStatus(te.Status)
			return te.Status, resp
		}
	}

	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrMissingID):
		return http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Code: ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, listquery.ErrUnknownList):
		return http.StatusNotFound, ErrorResponse{Code: ErrCodeUnknownList, Message: "unknown list"}
	case errors.Is(err, services.ErrNotImplemented):
		return http.StatusNotImplemented, ErrorResponse{Code: ErrCodeNotImplemented, Message: err.Error()}
	case errors.Is(err, services.ErrNoToken), errors.Is(err, services.ErrNoUploadRef):
		return http.StatusBadGateway, ErrorResponse{Code: ErrCodeUpstream, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Code: ErrCodeUpstreamTimeout, Message: "upstream timeout"}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: ErrCodeInternal, Message: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	}
	return ErrCodeBadRequest
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
