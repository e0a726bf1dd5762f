// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string
type EventCategory string

const (
	Pending   EventStatus = "PENDING"
	Succeeded EventStatus = "SUCCEEDED"
	Failed    EventStatus = "FAILED"
)

const (
	Import       EventCategory = "IMPORT"
	Payment      EventCategory = "PAYMENT"
	Auth         EventCategory = "AUTH"
	Notification EventCategory = "NOTIFICATION"
	Quota        EventCategory = "QUOTA"
)

type EventLog struct {
	ID          uint           `gorm:"primaryKey"`
	EID         uuid.UUID      `gorm:"type:uuid;not null;"`
	Category    *EventCategory `gorm:"size:50;default:null"`
	Status      *EventStatus   `gorm:"size:50;default:null"`
	JobID       *string        `gorm:"size:64;default:null;index"`
	Description *string        `gorm:"type:text;default:null;"`
	To          *string        `gorm:"size:255;default:null;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	UserID      uint
	User        User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (eventLog *EventLog) BeforeCreate(tx *gorm.DB) (err error) {
	eventLog.EID = uuid.New()
	return
}

func init() {
	AllModels = append(AllModels, &EventLog{})
}
