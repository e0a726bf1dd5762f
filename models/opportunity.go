// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"reachcrm-server/crypto"

	"gorm.io/gorm"
)

type OpportunityStage string

const (
	LeadStage      OpportunityStage = "LEAD"
	QualifiedStage OpportunityStage = "QUALIFIED"
	ProposalStage  OpportunityStage = "PROPOSAL"
	WonStage       OpportunityStage = "WON"
	LostStage      OpportunityStage = "LOST"
)

type Opportunity struct {
	ID            uint             `gorm:"primaryKey"`
	OpportunityID string           `gorm:"size:64;not null;uniqueIndex"`
	Title         string           `gorm:"size:255;not null"`
	Stage         OpportunityStage `gorm:"size:50;not null;default:'LEAD'"`
	ValueCents    int64            `gorm:"not null;default:0"`
	Currency      string           `gorm:"size:10;not null;default:'USD'"`
	ExpectedClose *time.Time
	Notes         *string `gorm:"type:text;default:null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
	ContactID     *uint          `gorm:"index;default:null"`
	Contact       Contact        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	UserID        uint           `gorm:"index"`
	User          User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (opportunity *Opportunity) BeforeCreate(tx *gorm.DB) (err error) {
	if opportunity.OpportunityID == "" {
		opportunity.OpportunityID, err = crypto.GenerateRandomString("opp_", 16, "hex")
		if err != nil {
			return err
		}
	}
	return
}

func init() {
	AllModels = append(AllModels, &Opportunity{})
}
