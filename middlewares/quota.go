// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"fmt"
	"net/http"

	"reachcrm-server/commons"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
)

func sessionFromContext(c echo.Context) (uint, bool) {
	if session, ok := c.Get("session").(models.Session); ok {
		return session.UserID, true
	}
	return 0, false
}

// ContactQuota rejects contact-creating requests that have no headroom left.
// This is an advisory pre-check for a friendly error; the authoritative
// admission is the atomic counter commit inside the handler's transaction.
func ContactQuota(requested int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if QuotaTracker == nil {
				return next(c)
			}
			session, ok := sessionFromContext(c)
			if !ok {
				return next(c)
			}

			decision, err := QuotaTracker.Check(session, requested)
			if err != nil {
				c.Logger().Errorf("Quota check failed: %v", err)
				// Fail closed: the contact counter is billing-relevant
				// state, so an unreadable counter blocks the write.
				return &echo.HTTPError{
					Code:    http.StatusServiceUnavailable,
					Message: "Unable to verify contact limit, please try again shortly",
				}
			}
			if !decision.Allowed {
				return QuotaExceededError(decision.Current, decision.Max, decision.Remaining)
			}
			return next(c)
		}
	}
}

func QuotaExceededError(current, max, remaining int64) *echo.HTTPError {
	return &echo.HTTPError{
		Code: http.StatusForbidden,
		Message: commons.ErrorBody{
			Code: commons.CodeQuotaExceeded,
			Message: fmt.Sprintf(
				"Contact limit reached (%d of %d used, %d remaining). Upgrade your plan to add more contacts.",
				current, max, remaining,
			),
		},
	}
}
