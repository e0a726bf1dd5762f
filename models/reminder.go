// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"reachcrm-server/crypto"

	"gorm.io/gorm"
)

type ReminderStatus string

const (
	PendingReminder   ReminderStatus = "PENDING"
	CompletedReminder ReminderStatus = "COMPLETED"
	SnoozedReminder   ReminderStatus = "SNOOZED"
	CancelledReminder ReminderStatus = "CANCELLED"
)

type ReminderPriority string

const (
	LowPriority    ReminderPriority = "LOW"
	MediumPriority ReminderPriority = "MEDIUM"
	HighPriority   ReminderPriority = "HIGH"
)

type Reminder struct {
	ID           uint             `gorm:"primaryKey"`
	ReminderID   string           `gorm:"size:64;not null;uniqueIndex"`
	Title        string           `gorm:"size:255;not null"`
	DueDate      time.Time        `gorm:"not null;index"`
	Type         *string          `gorm:"size:50;default:null"`
	Priority     ReminderPriority `gorm:"size:20;not null;default:'MEDIUM'"`
	Status       ReminderStatus   `gorm:"size:20;not null;default:'PENDING'"`
	Recurrence   *string          `gorm:"size:20;default:null"`
	SnoozedCount uint             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
	ContactID    *uint          `gorm:"index;default:null"`
	Contact      Contact        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	UserID       uint           `gorm:"index"`
	User         User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (reminder *Reminder) BeforeCreate(tx *gorm.DB) (err error) {
	if reminder.ReminderID == "" {
		reminder.ReminderID, err = crypto.GenerateRandomString("rem_", 16, "hex")
		if err != nil {
			return err
		}
	}
	return
}

func init() {
	AllModels = append(AllModels, &Reminder{})
}
