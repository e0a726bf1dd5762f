// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"
	"reachcrm-server/recurrence"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var reminderPriorities = map[models.ReminderPriority]bool{
	models.LowPriority:    true,
	models.MediumPriority: true,
	models.HighPriority:   true,
}

func reminderResponse(reminder models.Reminder, contactID string) ReminderResponse {
	resp := ReminderResponse{
		ReminderID:   reminder.ReminderID,
		Title:        reminder.Title,
		DueDate:      reminder.DueDate,
		Priority:     string(reminder.Priority),
		Status:       string(reminder.Status),
		SnoozedCount: reminder.SnoozedCount,
		ContactID:    contactID,
		CreatedAt:    reminder.CreatedAt,
		UpdatedAt:    reminder.UpdatedAt,
	}
	if reminder.Type != nil {
		resp.Type = *reminder.Type
	}
	if reminder.Recurrence != nil {
		resp.Recurrence = *reminder.Recurrence
	}
	return resp
}

func bindReminder(c echo.Context, userID uint, reminder *models.Reminder) (string, error) {
	logger := c.Logger()

	var req ReminderRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid reminder request payload:", err)
		return "", echo.ErrBadRequest
	}

	if strings.TrimSpace(req.Title) == "" {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "title field is required",
		}
	}
	if req.DueDate.IsZero() {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "due_date field is required",
		}
	}

	priority := models.ReminderPriority(strings.ToUpper(req.Priority))
	if req.Priority == "" {
		priority = models.MediumPriority
	}
	if !reminderPriorities[priority] {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "priority field must be one of LOW, MEDIUM, HIGH.",
		}
	}

	rule := strings.ToLower(req.Recurrence)
	if rule != "" && !recurrence.Valid(rule) {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "recurrence field must be one of daily, weekly, biweekly, monthly, quarterly, yearly.",
		}
	}

	reminder.Title = req.Title
	reminder.DueDate = req.DueDate
	reminder.Priority = priority
	reminder.Type = optional(req.Type)
	reminder.Recurrence = optional(rule)

	contactRef := ""
	reminder.ContactID = nil
	if req.ContactID != "" {
		contact, err := findContact(userID, req.ContactID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", &echo.HTTPError{
					Code:    http.StatusNotFound,
					Message: "Contact not found.",
				}
			}
			logger.Errorf("Failed to find contact: %v", err)
			return "", echo.ErrInternalServerError
		}
		reminder.ContactID = &contact.ID
		contactRef = contact.ContactID
	}
	return contactRef, nil
}

func findReminder(userID uint, reminderID string) (*models.Reminder, error) {
	reminder := models.Reminder{}
	err := db.Conn.Where("reminder_id = ? AND user_id = ?", reminderID, userID).First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// CreateReminderHandler godoc
// @Summary      Create a reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reminderRequest  body  ReminderRequest  true  "Reminder payload"
// @Success      201 {object} ReminderResponse    "Reminder created"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/reminders [post]
func CreateReminderHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	reminder := models.Reminder{UserID: userID}
	contactRef, err := bindReminder(c, userID, &reminder)
	if err != nil {
		return err
	}

	if err := db.Conn.Create(&reminder).Error; err != nil {
		logger.Errorf("Failed to create reminder: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusCreated, reminderResponse(reminder, contactRef))
}

// GetRemindersHandler godoc
// @Summary      List reminders
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        page    query  int     false  "Page number"
// @Param        limit   query  int     false  "Page size"
// @Param        status  query  string  false  "Filter by status"
// @Success      200 {array}  ReminderResponse    "Reminders"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/reminders [get]
func GetRemindersHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)

	query := db.Conn.Where("user_id = ?", userID)
	if status := strings.ToUpper(c.QueryParam("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var reminders []models.Reminder
	if err := query.Preload("Contact").
		Order("due_date ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&reminders).Error; err != nil {
		logger.Errorf("Failed to list reminders: %v", err)
		return echo.ErrInternalServerError
	}

	resp := make([]ReminderResponse, 0, len(reminders))
	for _, reminder := range reminders {
		contactRef := ""
		if reminder.ContactID != nil {
			contactRef = reminder.Contact.ContactID
		}
		resp = append(resp, reminderResponse(reminder, contactRef))
	}

	return respond(c, http.StatusOK, resp)
}

// UpdateReminderHandler godoc
// @Summary      Update a reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reminder_id      path  string           true  "Reminder ID"
// @Param        reminderRequest  body  ReminderRequest  true  "Reminder payload"
// @Success      200 {object} ReminderResponse    "Reminder updated"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Reminder not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/reminders/{reminder_id} [put]
func UpdateReminderHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	reminder, err := findReminder(userID, c.Param("reminder_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Reminder not found.",
			}
		}
		logger.Errorf("Failed to find reminder: %v", err)
		return echo.ErrInternalServerError
	}

	contactRef, err := bindReminder(c, userID, reminder)
	if err != nil {
		return err
	}

	if err := db.Conn.Save(reminder).Error; err != nil {
		logger.Errorf("Failed to update reminder: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, reminderResponse(*reminder, contactRef))
}

// CompleteReminderHandler godoc
// @Summary      Complete a reminder
// @Description  Marks the reminder completed. A recurring reminder spawns its
// next occurrence. Completion succeeds even when the successor cannot be
// created.
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        reminder_id  path  string  true  "Reminder ID"
// @Success      200 {object} ReminderResponse    "Completed reminder"
// @Failure      404 {object} echo.HTTPError      "Reminder not found"
// @Failure      409 {object} echo.HTTPError      "Reminder already completed"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/reminders/{reminder_id}/complete [post]
func CompleteReminderHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	reminder, err := findReminder(userID, c.Param("reminder_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Reminder not found.",
			}
		}
		logger.Errorf("Failed to find reminder: %v", err)
		return echo.ErrInternalServerError
	}

	if reminder.Status == models.CompletedReminder {
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "Reminder is already completed.",
		}
	}

	reminder.Status = models.CompletedReminder
	if err := db.Conn.Save(reminder).Error; err != nil {
		logger.Errorf("Failed to complete reminder: %v", err)
		return echo.ErrInternalServerError
	}

	if reminder.Recurrence != nil {
		if next, ok := recurrence.NextOccurrence(reminder.DueDate, *reminder.Recurrence); ok {
			successor := models.Reminder{
				Title:      reminder.Title,
				DueDate:    next,
				Type:       reminder.Type,
				Priority:   reminder.Priority,
				Recurrence: reminder.Recurrence,
				ContactID:  reminder.ContactID,
				UserID:     userID,
			}
			if err := db.Conn.Create(&successor).Error; err != nil {
				logger.Errorf("Failed to create recurring successor for %s: %v", reminder.ReminderID, err)
			}
		}
	}

	return respond(c, http.StatusOK, reminderResponse(*reminder, ""))
}

// SnoozeReminderHandler godoc
// @Summary      Snooze a reminder
// @Description  Reschedules the reminder to now plus the given number of
// minutes and increments the snooze counter.
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reminder_id    path  string                 true  "Reminder ID"
// @Param        snoozeRequest  body  SnoozeReminderRequest  true  "Snooze payload"
// @Success      200 {object} ReminderResponse    "Snoozed reminder"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Reminder not found"
// @Failure      409 {object} echo.HTTPError      "Reminder already completed"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/reminders/{reminder_id}/snooze [post]
func SnoozeReminderHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	var req SnoozeReminderRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid snooze request payload:", err)
		return echo.ErrBadRequest
	}
	if req.Minutes <= 0 {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "minutes field must be a positive integer",
		}
	}

	reminder, err := findReminder(userID, c.Param("reminder_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Reminder not found.",
			}
		}
		logger.Errorf("Failed to find reminder: %v", err)
		return echo.ErrInternalServerError
	}

	if reminder.Status == models.CompletedReminder || reminder.Status == models.CancelledReminder {
		return &echo.HTTPError{
			Code:    http.StatusConflict,
			Message: "Only pending or snoozed reminders can be snoozed.",
		}
	}

	// Snoozing reschedules from now, not from the original due date, and
	// leaves the status alone.
	reminder.DueDate = time.Now().Add(time.Duration(req.Minutes) * time.Minute)
	reminder.SnoozedCount++
	if err := db.Conn.Save(reminder).Error; err != nil {
		logger.Errorf("Failed to snooze reminder: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, reminderResponse(*reminder, ""))
}

// DeleteReminderHandler godoc
// @Summary      Delete a reminder
// @Tags         reminders
// @Produce      json
// @Security     BearerAuth
// @Param        reminder_id  path  string  true  "Reminder ID"
// @Success      200 {object} Response            "Reminder deleted"
// @Failure      404 {object} echo.HTTPError      "Reminder not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/reminders/{reminder_id} [delete]
func DeleteReminderHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	result := db.Conn.Where("reminder_id = ? AND user_id = ?", c.Param("reminder_id"), userID).
		Delete(&models.Reminder{})
	if result.Error != nil {
		logger.Errorf("Failed to delete reminder: %v", result.Error)
		return echo.ErrInternalServerError
	}
	if result.RowsAffected == 0 {
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "Reminder not found.",
		}
	}

	return respond(c, http.StatusOK, map[string]string{"message": "Reminder deleted successfully."})
}
