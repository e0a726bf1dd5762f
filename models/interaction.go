// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"reachcrm-server/crypto"

	"gorm.io/gorm"
)

type InteractionType string

const (
	CallInteraction    InteractionType = "CALL"
	EmailInteraction   InteractionType = "EMAIL"
	MeetingInteraction InteractionType = "MEETING"
	NoteInteraction    InteractionType = "NOTE"
)

type Interaction struct {
	ID            uint            `gorm:"primaryKey"`
	InteractionID string          `gorm:"size:64;not null;uniqueIndex"`
	Type          InteractionType `gorm:"size:50;not null;default:'NOTE'"`
	Summary       string          `gorm:"type:text;not null"`
	OccurredAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	ContactID     uint           `gorm:"index"`
	Contact       Contact        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID        uint           `gorm:"index"`
	User          User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (interaction *Interaction) BeforeCreate(tx *gorm.DB) (err error) {
	if interaction.InteractionID == "" {
		interaction.InteractionID, err = crypto.GenerateRandomString("int_", 16, "hex")
		if err != nil {
			return err
		}
	}
	return
}

func init() {
	AllModels = append(AllModels, &Interaction{})
}
