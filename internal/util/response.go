package util

import (
	"net/http"

	"github.com/NicolasBispo/personal-finances-app/internal/ledger"

	"github.com/gin-gonic/gin"
)

// Error writes the unified error body: {"error": kind, "message": msg}.
// The message is always human-readable; the client shows it verbatim in
// its alert dialog.
func Error(c *gin.Context, httpStatus int, kind ledger.Kind, msg string) {
	c.JSON(httpStatus, gin.H{
		"error":   string(kind),
		"message": msg,
	})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindInvalidTransition, ledger.KindConflict:
		return http.StatusConflict
	case ledger.KindTimeout:
		return http.StatusGatewayTimeout
	case ledger.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// DomainError writes err using its kind's status mapping.
func DomainError(c *gin.Context, err error) {
	kind := ledger.KindOf(err)
	Error(c, statusFor(kind), kind, ledger.MessageOf(err))
}
