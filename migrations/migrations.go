// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"fmt"

	"reachcrm-server/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint { return &v }

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_seed_plans",
			Migrate: func(tx *gorm.DB) error {
				plans := []models.Plan{
					{Name: models.FreePlan, Price: 0, Currency: "USD", MaxContacts: uintPtr(50)},
					{Name: models.TrialPlan, Price: 0, Currency: "USD", DurationInDays: uintPtr(14), MaxContacts: uintPtr(50)},
					{Name: models.BasePlan, Price: 1499, Currency: "USD", DurationInDays: uintPtr(30), MaxContacts: uintPtr(250000)},
					{Name: models.EnterprisePlan, Price: 4999, Currency: "USD", DurationInDays: uintPtr(30), MaxContacts: uintPtr(1000000)},
				}
				for i := range plans {
					if err := tx.Where(models.Plan{Name: plans[i].Name}).
						FirstOrCreate(&plans[i]).Error; err != nil {
						return fmt.Errorf("seed plan %s: %w", plans[i].Name, err)
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("name IN ?", []models.PlanName{
					models.FreePlan, models.TrialPlan, models.BasePlan, models.EnterprisePlan,
				}).Delete(&models.Plan{}).Error
			},
		},
	}
}
