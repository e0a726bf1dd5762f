// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var opportunityStages = map[models.OpportunityStage]bool{
	models.LeadStage:      true,
	models.QualifiedStage: true,
	models.ProposalStage:  true,
	models.WonStage:       true,
	models.LostStage:      true,
}

func opportunityResponse(opportunity models.Opportunity, contactID string) OpportunityResponse {
	resp := OpportunityResponse{
		OpportunityID: opportunity.OpportunityID,
		Title:         opportunity.Title,
		Stage:         string(opportunity.Stage),
		ValueCents:    opportunity.ValueCents,
		Currency:      opportunity.Currency,
		ExpectedClose: opportunity.ExpectedClose,
		ContactID:     contactID,
		CreatedAt:     opportunity.CreatedAt,
		UpdatedAt:     opportunity.UpdatedAt,
	}
	if opportunity.Notes != nil {
		resp.Notes = *opportunity.Notes
	}
	return resp
}

func bindOpportunity(c echo.Context, userID uint, opportunity *models.Opportunity) (string, error) {
	logger := c.Logger()

	var req OpportunityRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid opportunity request payload:", err)
		return "", echo.ErrBadRequest
	}

	if strings.TrimSpace(req.Title) == "" {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "title field is required",
		}
	}

	stage := models.OpportunityStage(strings.ToUpper(req.Stage))
	if req.Stage == "" {
		stage = models.LeadStage
	}
	if !opportunityStages[stage] {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "stage field must be one of LEAD, QUALIFIED, PROPOSAL, WON, LOST.",
		}
	}
	if req.ValueCents < 0 {
		return "", &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "value_cents field must not be negative",
		}
	}

	opportunity.Title = req.Title
	opportunity.Stage = stage
	opportunity.ValueCents = req.ValueCents
	opportunity.Currency = strings.ToUpper(req.Currency)
	if opportunity.Currency == "" {
		opportunity.Currency = "USD"
	}
	opportunity.ExpectedClose = req.ExpectedClose
	opportunity.Notes = optional(req.Notes)

	contactRef := ""
	opportunity.ContactID = nil
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
		opportunity.ContactID = &contact.ID
		contactRef = contact.ContactID
	}
	return contactRef, nil
}

// CreateOpportunityHandler godoc
// @Summary      Create a sales opportunity
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        opportunityRequest  body  OpportunityRequest  true  "Opportunity payload"
// @Success      201 {object} OpportunityResponse "Opportunity created"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/opportunities [post]
func CreateOpportunityHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	opportunity := models.Opportunity{UserID: userID}
	contactRef, err := bindOpportunity(c, userID, &opportunity)
	if err != nil {
		return err
	}

	if err := db.Conn.Create(&opportunity).Error; err != nil {
		logger.Errorf("Failed to create opportunity: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusCreated, opportunityResponse(opportunity, contactRef))
}

// GetOpportunitiesHandler godoc
// @Summary      List opportunities
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size"
// @Param        stage  query  string  false  "Filter by stage"
// @Success      200 {array}  OpportunityResponse "Opportunities"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/opportunities [get]
func GetOpportunitiesHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)

	query := db.Conn.Where("user_id = ?", userID)
	if stage := strings.ToUpper(c.QueryParam("stage")); stage != "" {
		if !opportunityStages[models.OpportunityStage(stage)] {
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "stage filter must be one of LEAD, QUALIFIED, PROPOSAL, WON, LOST.",
			}
		}
		query = query.Where("stage = ?", stage)
	}

	var opportunities []models.Opportunity
	if err := query.Preload("Contact").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&opportunities).Error; err != nil {
		logger.Errorf("Failed to list opportunities: %v", err)
		return echo.ErrInternalServerError
	}

	resp := make([]OpportunityResponse, 0, len(opportunities))
	for _, opportunity := range opportunities {
		contactRef := ""
		if opportunity.ContactID != nil {
			contactRef = opportunity.Contact.ContactID
		}
		resp = append(resp, opportunityResponse(opportunity, contactRef))
	}

	return respond(c, http.StatusOK, resp)
}

// UpdateOpportunityHandler godoc
// @Summary      Update an opportunity
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        opportunity_id      path  string              true  "Opportunity ID"
// @Param        opportunityRequest  body  OpportunityRequest  true  "Opportunity payload"
// @Success      200 {object} OpportunityResponse "Opportunity updated"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Opportunity not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/opportunities/{opportunity_id} [put]
func UpdateOpportunityHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	opportunity := models.Opportunity{}
	err = db.Conn.Where("opportunity_id = ? AND user_id = ?", c.Param("opportunity_id"), userID).
		First(&opportunity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Opportunity not found.",
			}
		}
		logger.Errorf("Failed to find opportunity: %v", err)
		return echo.ErrInternalServerError
	}

	contactRef, err := bindOpportunity(c, userID, &opportunity)
	if err != nil {
		return err
	}

	if err := db.Conn.Save(&opportunity).Error; err != nil {
		logger.Errorf("Failed to update opportunity: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, opportunityResponse(opportunity, contactRef))
}

// DeleteOpportunityHandler godoc
// @Summary      Delete an opportunity
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        opportunity_id  path  string  true  "Opportunity ID"
// @Success      200 {object} Response            "Opportunity deleted"
// @Failure      404 {object} echo.HTTPError      "Opportunity not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/opportunities/{opportunity_id} [delete]
func DeleteOpportunityHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	result := db.Conn.Where("opportunity_id = ? AND user_id = ?", c.Param("opportunity_id"), userID).
		Delete(&models.Opportunity{})
	if result.Error != nil {
		logger.Errorf("Failed to delete opportunity: %v", result.Error)
		return echo.ErrInternalServerError
	}
	if result.RowsAffected == 0 {
		return &echo.HTTPError{
			Code:    http.StatusNotFound,
			Message: "Opportunity not found.",
		}
	}

	return respond(c, http.StatusOK, map[string]string{"message": "Opportunity deleted successfully."})
}
