// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strings"

	"reachcrm-server/db"
	"reachcrm-server/importer"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func contactResponse(contact models.Contact) ContactResponse {
	resp := ContactResponse{
		ContactID: contact.ContactID,
		Name:      contact.Name,
		CreatedAt: contact.CreatedAt,
		UpdatedAt: contact.UpdatedAt,
	}
	if contact.Email != nil {
		resp.Email = *contact.Email
	}
	if contact.Phone != nil {
		resp.Phone = *contact.Phone
	}
	if contact.Company != nil {
		resp.Company = *contact.Company
	}
	if contact.Position != nil {
		resp.Position = *contact.Position
	}
	if contact.Industry != nil {
		resp.Industry = *contact.Industry
	}
	if contact.Notes != nil {
		resp.Notes = *contact.Notes
	}
	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func applyContactRequest(contact *models.Contact, req ContactRequest) {
	contact.Name = req.Name
	contact.Email = optional(importer.NormalizeEmail(req.Email))
	contact.Phone = optional(req.Phone)
	contact.Company = optional(req.Company)
	contact.Position = optional(req.Position)
	contact.Industry = optional(req.Industry)
	contact.Notes = optional(req.Notes)
}

func findContact(userID uint, contactID string) (*models.Contact, error) {
	contact := models.Contact{}
	err := db.Conn.Where("contact_id = ? AND user_id = ?", contactID, userID).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// CreateContactHandler godoc
// @Summary      Create a contact
// @Description  Creates a contact. Fails when the plan's contact ceiling is
// reached.
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contactRequest  body  ContactRequest  true  "Contact payload"
// @Success      201 {object} ContactResponse     "Contact created"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      403 {object} echo.HTTPError      "Contact limit reached"
// @Failure      409 {object} echo.HTTPError      "Duplicate contact"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts [post]
func CreateContactHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid contact request payload:", err)
		return echo.ErrBadRequest
	}

	if strings.TrimSpace(req.Name) == "" && req.Email == "" && req.Phone == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "At least one of name, email or phone is required.",
		}
	}

	contact := models.Contact{UserID: userID}
	applyContactRequest(&contact, req)
	if contact.Name == "" {
		if contact.Email != nil {
			contact.Name = *contact.Email
		} else if contact.Phone != nil {
			contact.Name = *contact.Phone
		}
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	committed, err := middlewares.QuotaTracker.Commit(tx, userID, 1)
	if err != nil {
		tx.Rollback()
		logger.Errorf("Failed to commit quota: %v", err)
		return echo.ErrInternalServerError
	}
	if !committed {
		tx.Rollback()
		decision, err := middlewares.QuotaTracker.Check(userID, 1)
		if err != nil {
			return echo.ErrInternalServerError
		}
		return middlewares.QuotaExceededError(decision.Current, decision.Max, decision.Remaining)
	}

	if err := tx.Create(&contact).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to create contact: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusCreated, contactResponse(contact))
}

// GetContactsHandler godoc
// @Summary      List contacts
// @Description  Returns the authenticated user's contacts with optional
// full-text filtering.
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int     false  "Page number"
// @Param        limit  query  int     false  "Page size"
// @Param        q      query  string  false  "Search term"
// @Success      200 {object} ContactListResponse "Contacts"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts [get]
func GetContactsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)

	query := db.Conn.Model(&models.Contact{}).Where("user_id = ?", userID)
	if term := strings.TrimSpace(c.QueryParam("q")); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR LOWER(company) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Errorf("Failed to count contacts: %v", err)
		return echo.ErrInternalServerError
	}

	var contacts []models.Contact
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&contacts).Error; err != nil {
		logger.Errorf("Failed to list contacts: %v", err)
		return echo.ErrInternalServerError
	}

	resp := ContactListResponse{
		Contacts:   make([]ContactResponse, 0, len(contacts)),
		Pagination: PaginationDetails{Total: total, Page: page, Limit: limit},
	}
	for _, contact := range contacts {
		resp.Contacts = append(resp.Contacts, contactResponse(contact))
	}

	return respond(c, http.StatusOK, resp)
}

// GetContactHandler godoc
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id  path  string  true  "Contact ID"
// @Success      200 {object} ContactResponse     "Contact"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts/{contact_id} [get]
func GetContactHandler(c echo.Context) error {
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

	return respond(c, http.StatusOK, contactResponse(*contact))
}

// UpdateContactHandler godoc
// @Summary      Update a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id      path  string          true  "Contact ID"
// @Param        contactRequest  body  ContactRequest  true  "Contact payload"
// @Success      200 {object} ContactResponse     "Contact updated"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts/{contact_id} [put]
func UpdateContactHandler(c echo.Context) error {
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

	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid contact request payload:", err)
		return echo.ErrBadRequest
	}

	if strings.TrimSpace(req.Name) == "" && req.Email == "" && req.Phone == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "At least one of name, email or phone is required.",
		}
	}

	applyContactRequest(contact, req)
	if err := db.Conn.Save(contact).Error; err != nil {
		logger.Errorf("Failed to update contact: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, contactResponse(*contact))
}

// DeleteContactHandler godoc
// @Summary      Delete a contact
// @Description  Deletes a contact and releases its quota slot.
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        contact_id  path  string  true  "Contact ID"
// @Success      200 {object} Response            "Contact deleted"
// @Failure      404 {object} echo.HTTPError      "Contact not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts/{contact_id} [delete]
func DeleteContactHandler(c echo.Context) error {
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

	if err := db.Conn.Delete(contact).Error; err != nil {
		logger.Errorf("Failed to delete contact: %v", err)
		return echo.ErrInternalServerError
	}

	if err := middlewares.QuotaTracker.Release(userID, 1); err != nil {
		logger.Errorf("Failed to release quota slot: %v", err)
	}

	return respond(c, http.StatusOK, map[string]string{"message": "Contact deleted successfully."})
}

// ExportContactsHandler godoc
// @Summary      Export contacts as CSV
// @Tags         contacts
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200 {string} string              "CSV document"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/contacts/export [get]
func ExportContactsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	var contacts []models.Contact
	if err := db.Conn.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&contacts).Error; err != nil {
		logger.Errorf("Failed to load contacts for export: %v", err)
		return echo.ErrInternalServerError
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="contacts.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	writer := csv.NewWriter(c.Response())
	if err := writer.Write([]string{"name", "email", "phone", "company", "position", "industry", "notes"}); err != nil {
		return err
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	for _, contact := range contacts {
		record := []string{
			contact.Name,
			deref(contact.Email),
			deref(contact.Phone),
			deref(contact.Company),
			deref(contact.Position),
			deref(contact.Industry),
			deref(contact.Notes),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
