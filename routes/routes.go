// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"reachcrm-server/commons"
	"reachcrm-server/handlers"
	"reachcrm-server/middlewares"
	"reachcrm-server/ratelimit"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	commons.Logger.Debug("Registering v1 routes")
	api_v1 := e.Group("/v1", middlewares.RateLimit(ratelimit.ClassGlobal))

	api_v1.POST("/auth/otp", handlers.SendOTPHandler)
	api_v1.POST("/auth/otp/verify", handlers.VerifyOTPHandler)
	api_v1.POST("/auth/logout", handlers.LogoutHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/auth/profile", handlers.ProfileHandler, middlewares.VerifyAuthMiddleware)

	api_v1.POST("/contacts", handlers.CreateContactHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassContactCreate), middlewares.ContactQuota(1))
	api_v1.GET("/contacts", handlers.GetContactsHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassSearch))
	api_v1.GET("/contacts/export", handlers.ExportContactsHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassExport))
	api_v1.POST("/contacts/import", handlers.ImportContactsHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassContactCreate))
	api_v1.GET("/contacts/:contact_id", handlers.GetContactHandler, middlewares.VerifyAuthMiddleware)
	api_v1.PUT("/contacts/:contact_id", handlers.UpdateContactHandler, middlewares.VerifyAuthMiddleware)
	api_v1.DELETE("/contacts/:contact_id", handlers.DeleteContactHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/contacts/:contact_id/interactions", handlers.GetContactInteractionsHandler, middlewares.VerifyAuthMiddleware)

	api_v1.POST("/interactions", handlers.CreateInteractionHandler, middlewares.VerifyAuthMiddleware)
	api_v1.DELETE("/interactions/:interaction_id", handlers.DeleteInteractionHandler, middlewares.VerifyAuthMiddleware)

	api_v1.POST("/opportunities", handlers.CreateOpportunityHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/opportunities", handlers.GetOpportunitiesHandler, middlewares.VerifyAuthMiddleware)
	api_v1.PUT("/opportunities/:opportunity_id", handlers.UpdateOpportunityHandler, middlewares.VerifyAuthMiddleware)
	api_v1.DELETE("/opportunities/:opportunity_id", handlers.DeleteOpportunityHandler, middlewares.VerifyAuthMiddleware)

	api_v1.POST("/reminders", handlers.CreateReminderHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/reminders", handlers.GetRemindersHandler, middlewares.VerifyAuthMiddleware)
	api_v1.PUT("/reminders/:reminder_id", handlers.UpdateReminderHandler, middlewares.VerifyAuthMiddleware)
	api_v1.POST("/reminders/:reminder_id/complete", handlers.CompleteReminderHandler, middlewares.VerifyAuthMiddleware)
	api_v1.POST("/reminders/:reminder_id/snooze", handlers.SnoozeReminderHandler, middlewares.VerifyAuthMiddleware)
	api_v1.DELETE("/reminders/:reminder_id", handlers.DeleteReminderHandler, middlewares.VerifyAuthMiddleware)

	api_v1.POST("/chat", handlers.ChatHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassChat))
	api_v1.GET("/chat/conversations", handlers.GetConversationsHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/chat/conversations/:conversation_id", handlers.GetConversationMessagesHandler, middlewares.VerifyAuthMiddleware)

	api_v1.POST("/uploads", handlers.UploadFileHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassUpload))
	api_v1.POST("/uploads/scan", handlers.ScanUploadHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassUpload))

	api_v1.POST("/payments/checkout", handlers.CreateCheckoutSessionHandler, middlewares.VerifyAuthMiddleware, middlewares.RateLimit(ratelimit.ClassPayment))
	api_v1.POST("/payments/webhook", handlers.StripeWebhookHandler)

	api_v1.GET("/subscriptions", handlers.GetSubscriptionHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/subscriptions/usage", handlers.GetUsageHandler, middlewares.VerifyAuthMiddleware)

	api_v1.GET("/jobs/:job_id", handlers.GetJobStatusHandler, middlewares.VerifyAuthMiddleware)
	api_v1.GET("/event-logs", handlers.GetEventLogsHandler, middlewares.VerifyAuthMiddleware)

	commons.Logger.Info("v1 routes registered successfully")
}
