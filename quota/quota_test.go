// SPDX-License-Identifier: GPL-3.0-only

package quota

import (
	"fmt"
	"sync"
	"testing"

	"reachcrm-server/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBSeq++
	dsn := fmt.Sprintf("file:quota_test_%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Plan{}, &models.Subscription{}, &models.Contact{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, contactCount int64) models.User {
	t.Helper()
	user := models.User{PhoneNumber: fmt.Sprintf("+1415555%04d", testDBSeq), ContactCount: contactCount}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedActivePlan(t *testing.T, db *gorm.DB, userID uint, name models.PlanName) {
	t.Helper()
	plan := models.Plan{Name: name}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	subscription := models.Subscription{
		Status: models.ActiveSubscription,
		UserID: userID,
		PlanID: plan.ID,
	}
	if err := db.Create(&subscription).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

func TestCeilingFor(t *testing.T) {
	cases := []struct {
		plan models.PlanName
		want int64
	}{
		{models.FreePlan, 50},
		{models.TrialPlan, 50},
		{models.BasePlan, 250000},
		{models.EnterprisePlan, 1000000},
		{models.PlanName("UNKNOWN"), 50},
	}
	for _, tc := range cases {
		if got := CeilingFor(tc.plan); got != tc.want {
			t.Errorf("CeilingFor(%s) = %d, want %d", tc.plan, got, tc.want)
		}
	}
}

func TestPlanForDefaultsToFree(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 0)

	plan, err := tracker.PlanFor(user.ID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if plan != models.FreePlan {
		t.Errorf("plan without subscription = %s, want FREE", plan)
	}
}

func TestPlanForInactiveSubscription(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 0)

	plan := models.Plan{Name: models.BasePlan}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	subscription := models.Subscription{
		Status: models.CanceledSubscription,
		UserID: user.ID,
		PlanID: plan.ID,
	}
	if err := db.Create(&subscription).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	got, err := tracker.PlanFor(user.ID)
	if err != nil {
		t.Fatalf("PlanFor failed: %v", err)
	}
	if got != models.FreePlan {
		t.Errorf("plan with canceled subscription = %s, want FREE", got)
	}
}

func TestCheckReportsHeadroom(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 47)

	decision, err := tracker.Check(user.ID, 3)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !decision.Allowed || decision.Current != 47 || decision.Max != 50 || decision.Remaining != 3 {
		t.Errorf("decision = %+v", decision)
	}

	decision, err = tracker.Check(user.ID, 4)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if decision.Allowed {
		t.Errorf("requesting past the ceiling should not be allowed: %+v", decision)
	}
}

func TestCommitStopsAtCeiling(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 49)

	ok, err := tracker.Commit(db, user.ID, 1)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !ok {
		t.Fatal("commit at 49/50 should succeed")
	}

	ok, err = tracker.Commit(db, user.ID, 1)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if ok {
		t.Error("commit at 50/50 should be refused")
	}

	var count int64
	db.Model(&models.User{}).Select("contact_count").Where("id = ?", user.ID).Scan(&count)
	if count != 50 {
		t.Errorf("contact_count = %d, want exactly 50", count)
	}
}

func TestCommitRespectsPlanCeiling(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 50)
	seedActivePlan(t, db, user.ID, models.BasePlan)

	ok, err := tracker.Commit(db, user.ID, 100)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !ok {
		t.Error("base plan should allow past the free ceiling")
	}
}

func TestConcurrentCommitsNeverOvershoot(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 48)

	var wg sync.WaitGroup
	admitted := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := tracker.Commit(db, user.ID, 1)
			if err != nil {
				t.Errorf("Commit failed: %v", err)
				return
			}
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	granted := 0
	for ok := range admitted {
		if ok {
			granted++
		}
	}
	if granted != 2 {
		t.Errorf("granted = %d, want exactly 2 of 10 near the ceiling", granted)
	}

	var count int64
	db.Model(&models.User{}).Select("contact_count").Where("id = ?", user.ID).Scan(&count)
	if count != 50 {
		t.Errorf("contact_count = %d, want exactly 50", count)
	}
}

func TestReserveUpToTruncates(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 45)

	granted, err := tracker.ReserveUpTo(user.ID, 100)
	if err != nil {
		t.Fatalf("ReserveUpTo failed: %v", err)
	}
	if granted != 5 {
		t.Errorf("granted = %d, want 5", granted)
	}

	granted, err = tracker.ReserveUpTo(user.ID, 1)
	if err != nil {
		t.Fatalf("ReserveUpTo failed: %v", err)
	}
	if granted != 0 {
		t.Errorf("granted at ceiling = %d, want 0", granted)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	tracker := NewTracker(db)
	user := seedUser(t, db, 3)

	if err := tracker.Release(user.ID, 5); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Select("contact_count").Where("id = ?", user.ID).Scan(&count)
	if count != 0 {
		t.Errorf("contact_count = %d, want floored at 0", count)
	}
}
