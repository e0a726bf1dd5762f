// SPDX-License-Identifier: GPL-3.0-only

// Package quota enforces per-account contact ceilings derived from the
// subscription plan. The counter lives on the users table and is only ever
// mutated through atomic conditional updates, never read-modify-write from
// application memory.
package quota

import (
	"errors"
	"fmt"

	"reachcrm-server/models"

	"gorm.io/gorm"
)

// Plan ceilings for the contacts resource.
var planCeilings = map[models.PlanName]int64{
	models.FreePlan:       50,
	models.TrialPlan:      50,
	models.BasePlan:       250000,
	models.EnterprisePlan: 1000000,
}

const reserveRetries = 5

func CeilingFor(plan models.PlanName) int64 {
	if max, ok := planCeilings[plan]; ok {
		return max
	}
	return planCeilings[models.FreePlan]
}

type Decision struct {
	Allowed   bool
	Current   int64
	Max       int64
	Remaining int64
}

type Tracker struct {
	db *gorm.DB
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// PlanFor returns the active plan name for the user, defaulting to FREE when
// no subscription row exists.
func (t *Tracker) PlanFor(userID uint) (models.PlanName, error) {
	subscription := models.Subscription{}
	err := t.db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.ActiveSubscription).
		Order("created_at DESC").First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FreePlan, nil
		}
		return models.FreePlan, err
	}
	return subscription.Plan.Name, nil
}

// Check is an advisory read used to produce friendly errors and to size bulk
// truncation. Admission itself happens in Commit.
func (t *Tracker) Check(userID uint, requested int64) (Decision, error) {
	plan, err := t.PlanFor(userID)
	if err != nil {
		return Decision{}, err
	}
	max := CeilingFor(plan)

	user := models.User{}
	if err := t.db.Select("id", "contact_count").Where("id = ?", userID).First(&user).Error; err != nil {
		return Decision{}, err
	}

	remaining := max - user.ContactCount
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   requested <= remaining,
		Current:   user.ContactCount,
		Max:       max,
		Remaining: remaining,
	}, nil
}

// Commit atomically claims n slots of headroom inside the caller's
// transaction. A false return means the ceiling would be exceeded and
// nothing was changed. Run this in the same transaction as the row insert so
// a rolled-back insert also rolls the counter back.
func (t *Tracker) Commit(tx *gorm.DB, userID uint, n int64) (bool, error) {
	if n <= 0 {
		return true, nil
	}
	plan, err := t.PlanFor(userID)
	if err != nil {
		return false, err
	}
	max := CeilingFor(plan)

	res := tx.Model(&models.User{}).
		Where("id = ? AND contact_count + ? <= ?", userID, n, max).
		UpdateColumn("contact_count", gorm.Expr("contact_count + ?", n))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReserveUpTo grants min(requested, remaining) slots using a compare-and-swap
// retry loop, for bulk imports that truncate to the available headroom rather
// than failing wholesale.
func (t *Tracker) ReserveUpTo(userID uint, requested int64) (int64, error) {
	if requested <= 0 {
		return 0, nil
	}
	plan, err := t.PlanFor(userID)
	if err != nil {
		return 0, err
	}
	max := CeilingFor(plan)

	for attempt := 0; attempt < reserveRetries; attempt++ {
		user := models.User{}
		if err := t.db.Select("id", "contact_count").Where("id = ?", userID).First(&user).Error; err != nil {
			return 0, err
		}

		remaining := max - user.ContactCount
		if remaining <= 0 {
			return 0, nil
		}
		want := requested
		if want > remaining {
			want = remaining
		}

		res := t.db.Model(&models.User{}).
			Where("id = ? AND contact_count = ?", userID, user.ContactCount).
			UpdateColumn("contact_count", gorm.Expr("contact_count + ?", want))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 1 {
			return want, nil
		}
		// Lost the race to a concurrent writer; re-read and retry.
	}
	return 0, fmt.Errorf("quota reservation contention for user %d", userID)
}

// Release returns n slots, flooring the counter at zero.
func (t *Tracker) Release(userID uint, n int64) error {
	if n <= 0 {
		return nil
	}
	return t.db.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("contact_count",
			gorm.Expr("CASE WHEN contact_count >= ? THEN contact_count - ? ELSE 0 END", n, n)).Error
}
