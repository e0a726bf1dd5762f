// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"reachcrm-server/crypto"

	"gorm.io/gorm"
)

type Contact struct {
	ID        uint    `gorm:"primaryKey"`
	ContactID string  `gorm:"size:64;not null;uniqueIndex"`
	Name      string  `gorm:"size:255;not null"`
	Email     *string `gorm:"size:255;default:null;index"`
	Phone     *string `gorm:"size:32;default:null;index"`
	Company   *string `gorm:"size:255;default:null"`
	Position  *string `gorm:"size:255;default:null"`
	Industry  *string `gorm:"size:255;default:null"`
	Notes     *string `gorm:"type:text;default:null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	UserID    uint           `gorm:"index"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (contact *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if contact.ContactID == "" {
		contact.ContactID, err = crypto.GenerateRandomString("ct_", 16, "hex")
		if err != nil {
			return err
		}
	}
	return
}

func init() {
	AllModels = append(AllModels, &Contact{})
}
