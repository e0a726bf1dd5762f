// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"reachcrm-server/ai"
	"reachcrm-server/commons"
	"reachcrm-server/db"
	"reachcrm-server/middlewares"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Assistant is wired at startup before routes are registered.
var Assistant *ai.Fallback

const assistantSystemPrompt = "You are a CRM assistant. Help the user manage " +
	"contacts, draft outreach messages, and summarize relationships. Be concise."

const chatHistoryDepth = 10

// ChatHandler godoc
// @Summary      Send a message to the CRM assistant
// @Description  Appends the message to a conversation and returns the
// assistant's reply. Omitting conversation_id starts a new conversation.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chatRequest  body  ChatRequest  true  "Chat payload"
// @Success      200 {object} ChatResponse        "Assistant reply"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      404 {object} echo.HTTPError      "Conversation not found"
// @Failure      502 {object} echo.HTTPError      "All language model backends failed"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/chat [post]
func ChatHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid chat request payload:", err)
		return echo.ErrBadRequest
	}

	if strings.TrimSpace(req.Message) == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "message field is required",
		}
	}

	conversation := models.Conversation{}
	if req.ConversationID != "" {
		err = db.Conn.Where("conversation_id = ? AND user_id = ?", req.ConversationID, userID).
			First(&conversation).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &echo.HTTPError{
					Code:    http.StatusNotFound,
					Message: "Conversation not found.",
				}
			}
			logger.Errorf("Failed to find conversation: %v", err)
			return echo.ErrInternalServerError
		}
	} else {
		title := req.Message
		if len(title) > 80 {
			title = title[:80]
		}
		conversation = models.Conversation{Title: title, UserID: userID}
		if err := db.Conn.Create(&conversation).Error; err != nil {
			logger.Errorf("Failed to create conversation: %v", err)
			return echo.ErrInternalServerError
		}
	}

	var history []models.ChatMessage
	if err := db.Conn.Where("conversation_id = ?", conversation.ID).
		Order("created_at DESC").Limit(chatHistoryDepth).
		Find(&history).Error; err != nil {
		logger.Errorf("Failed to load chat history: %v", err)
		return echo.ErrInternalServerError
	}

	var prompt strings.Builder
	for i := len(history) - 1; i >= 0; i-- {
		fmt.Fprintf(&prompt, "%s: %s\n", history[i].Role, history[i].Content)
	}
	fmt.Fprintf(&prompt, "%s: %s", models.UserRole, req.Message)

	reply, err := Assistant.GenerateText(c.Request().Context(), assistantSystemPrompt, prompt.String())
	if err != nil {
		logger.Errorf("All language model backends failed: %v", err)
		return APIError(http.StatusBadGateway, commons.CodeUpstream,
			"The assistant is unavailable right now, please try again later.")
	}

	messages := []models.ChatMessage{
		{Role: models.UserRole, Content: req.Message, ConversationID: conversation.ID, UserID: userID},
		{Role: models.AssistantRole, Content: reply, ConversationID: conversation.ID, UserID: userID},
	}
	if err := db.Conn.Create(&messages).Error; err != nil {
		logger.Errorf("Failed to persist chat messages: %v", err)
		return echo.ErrInternalServerError
	}

	return respond(c, http.StatusOK, ChatResponse{
		ConversationID: conversation.ConversationID,
		Reply:          reply,
	})
}

// GetConversationsHandler godoc
// @Summary      List conversations
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page number"
// @Param        limit  query  int  false  "Page size"
// @Success      200 {array}  ConversationResponse "Conversations"
// @Failure      401 {object} echo.HTTPError       "Unauthorized"
// @Failure      500 {object} echo.HTTPError       "Internal server error"
// @Router       /v1/chat/conversations [get]
func GetConversationsHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	page, limit := paginationParams(c)

	var conversations []models.Conversation
	if err := db.Conn.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&conversations).Error; err != nil {
		logger.Errorf("Failed to list conversations: %v", err)
		return echo.ErrInternalServerError
	}

	resp := make([]ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp = append(resp, ConversationResponse{
			ConversationID: conversation.ConversationID,
			Title:          conversation.Title,
			CreatedAt:      conversation.CreatedAt,
		})
	}

	return respond(c, http.StatusOK, resp)
}

// GetConversationMessagesHandler godoc
// @Summary      List a conversation's messages
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        conversation_id  path  string  true  "Conversation ID"
// @Success      200 {array}  ChatMessageResponse "Messages"
// @Failure      404 {object} echo.HTTPError      "Conversation not found"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/chat/conversations/{conversation_id} [get]
func GetConversationMessagesHandler(c echo.Context) error {
	logger := c.Logger()

	userID, err := middlewares.GetAuthenticatedUserID(c)
	if err != nil {
		return err
	}

	conversation := models.Conversation{}
	err = db.Conn.Where("conversation_id = ? AND user_id = ?", c.Param("conversation_id"), userID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Conversation not found.",
			}
		}
		logger.Errorf("Failed to find conversation: %v", err)
		return echo.ErrInternalServerError
	}

	var messages []models.ChatMessage
	if err := db.Conn.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		logger.Errorf("Failed to list messages: %v", err)
		return echo.ErrInternalServerError
	}

	resp := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		resp = append(resp, ChatMessageResponse{
			Role:      string(message.Role),
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		})
	}

	return respond(c, http.StatusOK, resp)
}
