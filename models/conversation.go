// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"reachcrm-server/crypto"

	"gorm.io/gorm"
)

type MessageRole string

const (
	UserRole      MessageRole = "USER"
	AssistantRole MessageRole = "ASSISTANT"
)

type Conversation struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID string `gorm:"size:64;not null;uniqueIndex"`
	Title          string `gorm:"size:255;not null;default:'New conversation'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	UserID         uint           `gorm:"index"`
	User           User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (conversation *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if conversation.ConversationID == "" {
		conversation.ConversationID, err = crypto.GenerateRandomString("conv_", 16, "hex")
		if err != nil {
			return err
		}
	}
	return
}

type ChatMessage struct {
	ID             uint         `gorm:"primaryKey"`
	Role           MessageRole  `gorm:"size:20;not null"`
	Content        string       `gorm:"type:text;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	ConversationID uint           `gorm:"index"`
	Conversation   Conversation   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID         uint           `gorm:"index"`
	User           User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func init() {
	AllModels = append(AllModels, &Conversation{}, &ChatMessage{})
}
