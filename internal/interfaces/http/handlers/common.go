package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// statusFor maps an error code onto an HTTP status. Every not-found code,
// including missing tables and providers, is reported as 404.
func statusFor(err error) int {
	if errors.IsNotFound(err) {
		return http.StatusNotFound
	}
	return errors.HTTPStatusForCode(errors.GetCode(err))
}

// writeAppError aborts c with the mapped status. Internal errors keep their
// code but not their message.
func writeAppError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Code: string(errors.GetCode(err)), Message: err.Error()}
	var app *errors.AppError
	if errors.As(err, &app) {
		resp.Message, resp.Detail = app.Message, app.Detail
	}
	if status == http.StatusInternalServerError {
		resp.Message, resp.Detail = "internal server error", ""
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

//Personal.AI order the ending
