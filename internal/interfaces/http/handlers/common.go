package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSieve/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// statusFor maps an error to its HTTP status via the error code table.
func statusFor(err error) int {
	return errors.HTTPStatusForCode(errors.GetCode(err))
}

// writeAppError writes err with its mapped status.  Server-side failures are
// masked.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	code := errors.GetCode(err)
	detail := err.Error()
	var ae *errors.AppError
	if errors.As(err, &ae) {
		detail = ae.Message
		if ae.Detail != "" {
			detail += ": " + ae.Detail
		}
	}
	if status >= http.StatusInternalServerError {
		detail = errors.DefaultMessageForCode(code)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: string(code), Detail: detail})
}

// parsePagination reads limit and offset query parameters.
func parsePagination(c *gin.Context) (int, int) {
	limit, offset := 20, 0
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

//Personal.AI order the ending
