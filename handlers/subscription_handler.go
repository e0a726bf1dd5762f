// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"

	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"
	"reachcrm-server/quota"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// GetSubscriptionHandler godoc
// @Summary      Get the current subscription
// @Description  Returns the active subscription, falling back to the free
// plan when none is active.
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} SubscriptionResponse "Subscription"
// @Failure      401 {object} echo.HTTPError       "Unauthorized"
// @Failure      500 {object} echo.HTTPError       "Internal server error"
// @Router       /v1/subscriptions [get]
func GetSubscriptionHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	subscription := models.Subscription{}
	err = db.Conn.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.ActiveSubscription).
		Order("created_at DESC").First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond(c, http.StatusOK, SubscriptionResponse{
			Plan:        string(models.FreePlan),
			Status:      string(models.InactiveSubscription),
			MaxContacts: quota.CeilingFor(models.FreePlan),
		})
	}
	if err != nil {
		logger.Errorf("Failed to load subscription: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, SubscriptionResponse{
		Plan:        string(subscription.Plan.Name),
		Status:      string(subscription.Status),
		ExpiresAt:   subscription.ExpiresAt,
		MaxContacts: quota.CeilingFor(subscription.Plan.Name),
	})
}

// GetUsageHandler godoc
// @Summary      Get contact quota usage
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UsageResponse       "Usage"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/subscriptions/usage [get]
func GetUsageHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	plan, err := middlewares.QuotaTracker.PlanFor(userID)
	if err != nil {
		logger.Errorf("Failed to resolve plan: %v", err)
		return echo.ErrInternalServerError
	}

	decision, err := middlewares.QuotaTracker.Check(userID, 0)
	if err != nil {
		logger.Errorf("Failed to check quota: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, UsageResponse{
		Plan:         string(plan),
		ContactCount: decision.Current,
		MaxContacts:  decision.Max,
		Remaining:    decision.Remaining,
	})
}
