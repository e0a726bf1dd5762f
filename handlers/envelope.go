// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"

	"reachcrm-server/commons"

	"github.com/labstack/echo/v4"
)

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	Success bool               `json:"success"`
	Data    any                `json:"data"`
	Error   *commons.ErrorBody `json:"error"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

// APIError builds an echo.HTTPError whose message carries an explicit
// envelope error body, for codes the status alone cannot express (quota vs
// generic forbidden, upstream vs internal).
func APIError(status int, code, message string) *echo.HTTPError {
	return &echo.HTTPError{Code: status, Message: commons.ErrorBody{Code: code, Message: message}}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return commons.CodeValidation
	case http.StatusUnauthorized:
		return commons.CodeUnauthorized
	case http.StatusForbidden:
		return commons.CodeForbidden
	case http.StatusNotFound:
		return commons.CodeNotFound
	case http.StatusConflict:
		return commons.CodeDuplicate
	case http.StatusRequestEntityTooLarge:
		return commons.CodePayloadTooLarge
	case http.StatusTooManyRequests:
		return commons.CodeRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return commons.CodeUpstream
	default:
		return commons.CodeInternal
	}
}

// ErrorHandler converts every error into the uniform envelope. Unexpected
// errors are logged and surfaced as INTERNAL_ERROR without leaking details.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := commons.ErrorBody{Code: commons.CodeInternal, Message: "Internal server error"}

	if httpErr, ok := err.(*echo.HTTPError); ok {
		status = httpErr.Code
		switch message := httpErr.Message.(type) {
		case commons.ErrorBody:
			body = message
		case string:
			body = commons.ErrorBody{Code: codeForStatus(status), Message: message}
		default:
			body = commons.ErrorBody{Code: codeForStatus(status), Message: http.StatusText(status)}
		}
	} else {
		commons.Logger.Errorf("Unhandled error: %v", err)
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(status); err != nil {
			c.Logger().Error(err)
		}
		return
	}
	if err := c.JSON(status, Response{Success: false, Error: &body}); err != nil {
		c.Logger().Error(err)
	}
}
