// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"net/http"
	"strconv"

	"reachcrm-server/commons"
	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
)

// LogEvent records an audit event without failing the caller. Persistence
// errors are logged and swallowed.
func LogEvent(category models.EventCategory, status models.EventStatus, userID uint, description string, jobID *string) {
	event := models.EventLog{
		Category: &category,
		Status:   &status,
		UserID:   userID,
		JobID:    jobID,
	}
	if description != "" {
		event.Description = &description
	}
	if err := db.Conn.Create(&event).Error; err != nil {
		commons.Logger.Errorf("Failed to record event log: %v", err)
	}
}

func paginationParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// GetEventLogsHandler godoc
// @Summary      List audit events
// @Description  Returns the authenticated user's audit events, newest first.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        page      query  int     false  "Page number"
// @Param        limit     query  int     false  "Page size"
// @Param        category  query  string  false  "Filter by category"
// @Param        job_id    query  string  false  "Filter by job ID"
// @Success      200 {object} EventLogListResponse "Events"
// @Failure      401 {object} echo.HTTPError       "Unauthorized"
// @Failure      500 {object} echo.HTTPError       "Internal server error"
// @Router       /v1/event-logs [get]
func GetEventLogsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)

	query := db.Conn.Model(&models.EventLog{}).Where("user_id = ?", userID)
	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if jobID := c.QueryParam("job_id"); jobID != "" {
		query = query.Where("job_id = ?", jobID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Errorf("Failed to count event logs: %v", err)
		return echo.ErrInternalServerError
	}

	var events []models.EventLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&events).Error; err != nil {
		logger.Errorf("Failed to list event logs: %v", err)
		return echo.ErrInternalServerError
	}

	resp := EventLogListResponse{
		Events:     make([]EventLogResponse, 0, len(events)),
		Pagination: PaginationDetails{Total: total, Page: page, Limit: limit},
	}
	for _, event := range events {
		item := EventLogResponse{
			EID:       event.EID.String(),
			CreatedAt: event.CreatedAt,
		}
		if event.Category != nil {
			item.Category = string(*event.Category)
		}
		if event.Status != nil {
			item.Status = string(*event.Status)
		}
		if event.JobID != nil {
			item.JobID = *event.JobID
		}
		if event.Description != nil {
			item.Description = *event.Description
		}
		resp.Events = append(resp.Events, item)
	}

	return respond(c, http.StatusOK, resp)
}
