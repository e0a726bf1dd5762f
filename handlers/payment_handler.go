// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"reachcrm-server/commons"
	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
	"gorm.io/gorm"
)

// InitStripe wires the Stripe API key from the environment.
func InitStripe() {
	stripe.Key = commons.GetEnv("STRIPE_SECRET_KEY")
}

func priceIDForPlan(plan models.PlanName) string {
	switch plan {
	case models.BasePlan:
		return commons.GetEnv("STRIPE_PRICE_BASE")
	case models.EnterprisePlan:
		return commons.GetEnv("STRIPE_PRICE_ENTERPRISE")
	default:
		return ""
	}
}

// ensureStripeCustomer reuses the customer ID recorded on any of the user's
// subscriptions, creating a new Stripe customer otherwise. The ID is persisted
// with the subscription row the checkout webhook creates.
func ensureStripeCustomer(user *models.User) (string, error) {
	subscription := models.Subscription{}
	err := db.Conn.Where("user_id = ? AND stripe_customer_id IS NOT NULL", user.ID).
		Order("created_at DESC").First(&subscription).Error
	if err == nil && subscription.StripeCustomerID != nil {
		return *subscription.StripeCustomerID, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	params := &stripe.CustomerParams{}
	params.AddMetadata("account_id", user.AccountID)
	if user.Email != nil {
		params.Email = stripe.String(*user.Email)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreateCheckoutSessionHandler godoc
// @Summary      Start a plan upgrade checkout
// @Description  Creates a Stripe Checkout session for the requested paid plan.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        checkoutRequest  body  CheckoutRequest  true  "Checkout payload"
// @Success      200 {object} CheckoutResponse    "Checkout session created"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      503 {object} echo.HTTPError      "Billing not configured"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/payments/checkout [post]
func CreateCheckoutSessionHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		return err
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid checkout request payload:", err)
		return echo.ErrBadRequest
	}

	plan := models.PlanName(strings.ToUpper(req.Plan))
	if plan != models.BasePlan && plan != models.EnterprisePlan {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "plan field must be one of BASE, ENTERPRISE.",
		}
	}

	priceID := priceIDForPlan(plan)
	frontendURL := strings.TrimRight(commons.GetEnv("FRONTEND_URL"), "/")
	if stripe.Key == "" || priceID == "" || frontendURL == "" {
		return &echo.HTTPError{
			Code:    http.StatusServiceUnavailable,
			Message: "Billing is not configured.",
		}
	}

	customerID, err := ensureStripeCustomer(user)
	if err != nil {
		logger.Errorf("Failed to ensure Stripe customer: %v", err)
		return echo.ErrInternalServerError
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontendURL + "/billing/success"),
		CancelURL:  stripe.String(frontendURL + "/billing/cancel"),
	}
	params.AddMetadata("account_id", user.AccountID)
	params.AddMetadata("plan", string(plan))

	sess, err := session.New(params)
	if err != nil {
		logger.Errorf("Failed to create checkout session: %v", err)
		return echo.ErrInternalServerError
	}

	LogEvent(models.Payment, models.Pending, user.ID, "checkout session created for "+string(plan), nil)
	return respond(c, http.StatusOK, CheckoutResponse{CheckoutURL: sess.URL})
}

// StripeWebhookHandler godoc
// @Summary      Stripe webhook receiver
// @Description  Verifies the event signature and applies subscription state
// changes. Always returns 200 once the signature checks out.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200 {object} Response            "Event processed"
// @Failure      400 {object} echo.HTTPError      "Signature verification failed"
// @Router       /v1/payments/webhook [post]
func StripeWebhookHandler(c echo.Context) error {
	logger := c.Logger()

	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		logger.Errorf("Failed to read webhook body: %v", err)
		return echo.ErrBadRequest
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		c.Request().Header.Get("Stripe-Signature"),
		commons.GetEnv("STRIPE_WEBHOOK_SECRET"),
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		logger.Errorf("Webhook signature verification failed: %v", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Signature verification failed.",
		}
	}

	// Processing failures after this point are logged but still acknowledged
	// so Stripe does not retry a permanently broken event forever.
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			logger.Errorf("Failed to decode checkout session: %v", err)
			break
		}
		if err := activateSubscription(sess); err != nil {
			logger.Errorf("Failed to activate subscription: %v", err)
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			logger.Errorf("Failed to decode subscription: %v", err)
			break
		}
		if err := cancelSubscription(sub.ID); err != nil {
			logger.Errorf("Failed to cancel subscription: %v", err)
		}
	default:
		logger.Debugf("Ignoring Stripe event %s", event.Type)
	}

	return respond(c, http.StatusOK, map[string]string{"status": "ok"})
}

func activateSubscription(sess stripe.CheckoutSession) error {
	accountID := sess.Metadata["account_id"]
	planName := models.PlanName(sess.Metadata["plan"])
	if accountID == "" || planName == "" {
		return errors.New("checkout session is missing account or plan metadata")
	}

	user := models.User{}
	if err := db.Conn.Where("account_id = ?", accountID).First(&user).Error; err != nil {
		return err
	}
	plan := models.Plan{}
	if err := db.Conn.Where("name = ?", planName).First(&plan).Error; err != nil {
		return err
	}

	var expiresAt *time.Time
	if plan.DurationInDays != nil {
		expiry := time.Now().Add(time.Duration(*plan.DurationInDays) * 24 * time.Hour)
		expiresAt = &expiry
	}

	subscription := models.Subscription{
		Status:    models.ActiveSubscription,
		StartedAt: time.Now(),
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		PlanID:    plan.ID,
	}
	if sess.Customer != nil {
		subscription.StripeCustomerID = &sess.Customer.ID
	}
	if sess.Subscription != nil {
		subscription.StripeSubscriptionID = &sess.Subscription.ID
	}

	return db.Conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND status = ?", user.ID, models.ActiveSubscription).
			Update("status", models.InactiveSubscription).Error; err != nil {
			return err
		}
		if err := tx.Create(&subscription).Error; err != nil {
			return err
		}
		LogEvent(models.Payment, models.Succeeded, user.ID, "subscription activated on "+string(planName), nil)
		return nil
	})
}

func cancelSubscription(stripeSubscriptionID string) error {
	if stripeSubscriptionID == "" {
		return errors.New("subscription event is missing its ID")
	}

	subscription := models.Subscription{}
	if err := db.Conn.Where("stripe_subscription_id = ?", stripeSubscriptionID).
		First(&subscription).Error; err != nil {
		return err
	}

	if err := db.Conn.Model(&subscription).
		Update("status", models.CanceledSubscription).Error; err != nil {
		return err
	}
	LogEvent(models.Payment, models.Succeeded, subscription.UserID, "subscription canceled", nil)
	return nil
}
