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

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var interactionTypes = map[models.InteractionType]bool{
	models.CallInteraction:    true,
	models.EmailInteraction:   true,
	models.MeetingInteraction: true,
	models.NoteInteraction:    true,
}

func interactionResponse(interaction models.Interaction, contactID string) InteractionResponse {
	return InteractionResponse{
		InteractionID: interaction.InteractionID,
		ContactID:     contactID,
		Type:          string(interaction.Type),
		Summary:       interaction.Summary,
		OccurredAt:    interaction.OccurredAt,
		CreatedAt:     interaction.CreatedAt,
	}
}

// CreateInteractionHandler godoc
// @Summary      Record an interaction with a contact
// @Tags         interactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        interactionRequest  body  InteractionRequest  true  "Interaction payload"
// @Success      201 {object} InteractionResponse "Interaction recorded"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/interactions [post]
func CreateInteractionHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	var req InteractionRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid interaction request payload:", err)
		return echo.ErrBadRequest
	}

	if req.ContactID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "contact_id field is required",
		}
	}
	if strings.TrimSpace(req.Summary) == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "summary field is required",
		}
	}

	interactionType := models.InteractionType(strings.ToUpper(req.Type))
	if req.Type == "" {
		interactionType = models.NoteInteraction
	}
	if !interactionTypes[interactionType] {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "type field must be one of CALL, EMAIL, MEETING, NOTE.",
		}
	}

	contact, err := findContact(userID, req.ContactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Contact not found.",
			}
		}
		logger.Errorf("Failed to find contact: %v", err)
		return echo.ErrInternalServerError
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	interaction := models.Interaction{
		Type:       interactionType,
		Summary:    req.Summary,
		OccurredAt: occurredAt,
		ContactID:  contact.ID,
		UserID:     userID,
	}
	if err := db.Conn.Create(&interaction).Error; err != nil {
		logger.Errorf("Failed to create interaction: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusCreated, interactionResponse(interaction, contact.ContactID))
}

// GetContactInteractionsHandler godoc
// @Summary      List a contact's interactions
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id  path   string  true   "Contact ID"
// @Param        page        query  int     false  "Page number"
// @Param        limit       query  int     false  "Page size"
// @Success      200 {array}  InteractionResponse "Interactions"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts/{contact_id}/interactions [get]
func GetContactInteractionsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	contact, err := findContact(userID, c.Param("contact_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Contact not found.",
			}
		}
		logger.Errorf("Failed to find contact: %v", err)
		return echo.ErrInternalServerError
	}

	page, limit := paginationParams(c)

	var interactions []models.Interaction
	if err := db.Conn.Where("contact_id = ? AND user_id = ?", contact.ID, userID).
		Order("occurred_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&interactions).Error; err != nil {
		logger.Errorf("Failed to list interactions: %v", err)
		return echo.ErrInternalServerError
	}

	resp := make([]InteractionResponse, 0, len(interactions))
	for _, interaction := range interactions {
		resp = append(resp, interactionResponse(interaction, contact.ContactID))
	}

	return respond(c, http.StatusOK, resp)
}

// DeleteInteractionHandler godoc
// @Summary      Delete an interaction
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        interaction_id  path  string  true  "Interaction ID"
// @Success      200 {object} Response            "Interaction deleted"
// @Failure      404 {object} echo.HTTPError      "Interaction not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/interactions/{interaction_id} [delete]
func DeleteInteractionHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	interaction := models.Interaction{}
	err = db.Conn.Where("interaction_id = ? AND user_id = ?", c.Param("interaction_id"), userID).
		First(&interaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Interaction not found.",
			}
		}
		logger.Errorf("Failed to find interaction: %v", err)
		return echo.ErrInternalServerError
	}

	if err := db.Conn.Delete(&interaction).Error; err != nil {
		logger.Errorf("Failed to delete interaction: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, map[string]string{"message": "Interaction deleted successfully."})
}
