// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"net/http"
	"strconv"

	"reachcrm-server/models"
	"reachcrm-server/quota"
	"reachcrm-server/ratelimit"

	"github.com/labstack/echo/v4"
)

// Limits is the route-class limiter registry, wired at startup. A nil
// registry disables rate limiting (tests, limiter store unavailable at
// boot).
var Limits *ratelimit.Registry

// QuotaTracker is the contact quota tracker, wired at startup.
var QuotaTracker *quota.Tracker

// RateLimit admits the request against the named route class. The key is the
// authenticated account when a session is already resolved, the client
// address otherwise, so unauthenticated abuse is bounded before any profile
// lookup is paid for.
func RateLimit(class string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			multiplier := 1
			if session, ok := c.Get("session").(models.Session); ok {
				key = accountKey(session.UserID)
				if QuotaTracker != nil {
					if plan, err := QuotaTracker.PlanFor(session.UserID); err == nil {
						multiplier = ratelimit.MultiplierFor(plan)
					}
				}
			}
			return admit(c, class, key, multiplier, next)
		}
	}
}

// AdmitIdentity rate-limits by a claimed identity such as a phone number,
// called from handlers after the request body is parsed. Keying on the
// identity rather than the address stops distributed brute force against one
// target.
func AdmitIdentity(c echo.Context, class, identity string) error {
	if Limits == nil {
		return nil
	}
	result := Limits.Admit(class, identity, 1)
	if !result.Allowed {
		return rateLimitError()
	}
	return nil
}

func admit(c echo.Context, class, key string, multiplier int, next echo.HandlerFunc) error {
	if Limits == nil {
		return next(c)
	}
	result := Limits.Admit(class, key, multiplier)
	if !result.Allowed {
		c.Logger().Warnf("Rate limit exceeded for class %s, key %s", class, key)
		return rateLimitError()
	}
	return next(c)
}

func rateLimitError() *echo.HTTPError {
	return &echo.HTTPError{
		Code:    http.StatusTooManyRequests,
		Message: "Too many requests, please slow down and try again later",
	}
}

func accountKey(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}
