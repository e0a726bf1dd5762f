// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reachcrm-server/db"
	"reachcrm-server/models"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerDBSeq int

func setupHandlerDB(t *testing.T) models.User {
	t.Helper()
	handlerDBSeq++
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", handlerDBSeq)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(models.AllModels...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	prev := db.Conn
	db.Conn = conn
	t.Cleanup(func() { db.Conn = prev })

	user := models.User{PhoneNumber: fmt.Sprintf("+1415555%04d", handlerDBSeq)}
	if err := db.Conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func newAuthedContext(t *testing.T, user models.User, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("session", models.Session{UserID: user.ID})
	return c, rec
}

func seedReminder(t *testing.T, user models.User, recurrence string, due time.Time) models.Reminder {
	t.Helper()
	reminder := models.Reminder{
		Title:    "Follow up with Ada",
		DueDate:  due,
		Priority: models.MediumPriority,
		Status:   models.PendingReminder,
		UserID:   user.ID,
	}
	if recurrence != "" {
		reminder.Recurrence = &recurrence
	}
	if err := db.Conn.Create(&reminder).Error; err != nil {
		t.Fatalf("seed reminder: %v", err)
	}
	return reminder
}

func TestCompleteReminderSpawnsRecurringSuccessor(t *testing.T) {
	user := setupHandlerDB(t)
	due := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	reminder := seedReminder(t, user, "weekly", due)

	c, rec := newAuthedContext(t, user, http.MethodPost, "/v1/reminders/"+reminder.ReminderID+"/complete", "")
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	if err := CompleteReminderHandler(c); err != nil {
		t.Fatalf("CompleteReminderHandler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var stored models.Reminder
	if err := db.Conn.First(&stored, reminder.ID).Error; err != nil {
		t.Fatalf("reload reminder: %v", err)
	}
	if stored.Status != models.CompletedReminder {
		t.Errorf("Expected status COMPLETED, got %s", stored.Status)
	}

	var successor models.Reminder
	err := db.Conn.Where("id != ? AND user_id = ?", reminder.ID, user.ID).First(&successor).Error
	if err != nil {
		t.Fatalf("Expected a recurring successor to be created: %v", err)
	}
	if successor.Status != models.PendingReminder {
		t.Errorf("Expected successor status PENDING, got %s", successor.Status)
	}
	if !successor.DueDate.Equal(due.AddDate(0, 0, 7)) {
		t.Errorf("Expected successor due %v, got %v", due.AddDate(0, 0, 7), successor.DueDate)
	}
	if successor.Recurrence == nil || *successor.Recurrence != "weekly" {
		t.Errorf("Expected successor to keep the weekly recurrence, got %v", successor.Recurrence)
	}
	if successor.Title != reminder.Title {
		t.Errorf("Expected successor title %q, got %q", reminder.Title, successor.Title)
	}
}

func TestCompleteNonRecurringReminderCreatesNoSuccessor(t *testing.T) {
	user := setupHandlerDB(t)
	reminder := seedReminder(t, user, "", time.Now().Add(time.Hour))

	c, _ := newAuthedContext(t, user, http.MethodPost, "/v1/reminders/"+reminder.ReminderID+"/complete", "")
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	if err := CompleteReminderHandler(c); err != nil {
		t.Fatalf("CompleteReminderHandler returned error: %v", err)
	}

	var count int64
	if err := db.Conn.Model(&models.Reminder{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count reminders: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 reminder after completion, got %d", count)
	}
}

func TestCompleteReminderAlreadyCompletedConflicts(t *testing.T) {
	user := setupHandlerDB(t)
	reminder := seedReminder(t, user, "", time.Now().Add(time.Hour))
	if err := db.Conn.Model(&reminder).Update("status", models.CompletedReminder).Error; err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	c, _ := newAuthedContext(t, user, http.MethodPost, "/v1/reminders/"+reminder.ReminderID+"/complete", "")
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	err := CompleteReminderHandler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", httpErr.Code)
	}
}

func TestSnoozeReminderReschedulesFromNow(t *testing.T) {
	user := setupHandlerDB(t)
	due := time.Now().Add(-time.Hour)
	reminder := seedReminder(t, user, "", due)

	c, rec := newAuthedContext(t, user, http.MethodPost,
		"/v1/reminders/"+reminder.ReminderID+"/snooze", `{"minutes": 30}`)
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	before := time.Now()
	if err := SnoozeReminderHandler(c); err != nil {
		t.Fatalf("SnoozeReminderHandler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var stored models.Reminder
	if err := db.Conn.First(&stored, reminder.ID).Error; err != nil {
		t.Fatalf("reload reminder: %v", err)
	}
	want := before.Add(30 * time.Minute)
	if diff := stored.DueDate.Sub(want); diff < 0 || diff > 5*time.Second {
		t.Errorf("Expected due date about %v, got %v", want, stored.DueDate)
	}
	if stored.Status != models.PendingReminder {
		t.Errorf("Expected status to stay PENDING, got %s", stored.Status)
	}
	if stored.SnoozedCount != 1 {
		t.Errorf("Expected snoozed count 1, got %d", stored.SnoozedCount)
	}

	// Snoozing again keeps counting.
	c2, _ := newAuthedContext(t, user, http.MethodPost,
		"/v1/reminders/"+reminder.ReminderID+"/snooze", `{"minutes": 15}`)
	c2.SetParamNames("reminder_id")
	c2.SetParamValues(reminder.ReminderID)
	if err := SnoozeReminderHandler(c2); err != nil {
		t.Fatalf("second snooze returned error: %v", err)
	}
	if err := db.Conn.First(&stored, reminder.ID).Error; err != nil {
		t.Fatalf("reload reminder: %v", err)
	}
	if stored.SnoozedCount != 2 {
		t.Errorf("Expected snoozed count 2, got %d", stored.SnoozedCount)
	}
}

func TestSnoozeRejectsNonPositiveMinutes(t *testing.T) {
	user := setupHandlerDB(t)
	reminder := seedReminder(t, user, "", time.Now().Add(time.Hour))

	c, _ := newAuthedContext(t, user, http.MethodPost,
		"/v1/reminders/"+reminder.ReminderID+"/snooze", `{"minutes": 0}`)
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	err := SnoozeReminderHandler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", httpErr.Code)
	}
}

func TestSnoozeCompletedReminderConflicts(t *testing.T) {
	user := setupHandlerDB(t)
	reminder := seedReminder(t, user, "", time.Now().Add(time.Hour))
	if err := db.Conn.Model(&reminder).Update("status", models.CompletedReminder).Error; err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	c, _ := newAuthedContext(t, user, http.MethodPost,
		"/v1/reminders/"+reminder.ReminderID+"/snooze", `{"minutes": 10}`)
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	err := SnoozeReminderHandler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", httpErr.Code)
	}
}

func TestCreateReminderValidation(t *testing.T) {
	user := setupHandlerDB(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"due_date": "2026-03-02T09:00:00Z"}`},
		{"missing due date", `{"title": "Call Ada"}`},
		{"invalid priority", `{"title": "Call Ada", "due_date": "2026-03-02T09:00:00Z", "priority": "URGENT"}`},
		{"invalid recurrence", `{"title": "Call Ada", "due_date": "2026-03-02T09:00:00Z", "recurrence": "fortnightly"}`},
	}
	for _, tc := range cases {
		c, _ := newAuthedContext(t, user, http.MethodPost, "/v1/reminders", tc.body)
		err := CreateReminderHandler(c)
		httpErr, ok := err.(*echo.HTTPError)
		if !ok {
			t.Errorf("%s: expected *echo.HTTPError, got %v", tc.name, err)
			continue
		}
		if httpErr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", tc.name, httpErr.Code)
		}
	}
}

func TestReminderNotFoundForOtherUser(t *testing.T) {
	user := setupHandlerDB(t)
	other := models.User{PhoneNumber: "+14155559999"}
	if err := db.Conn.Create(&other).Error; err != nil {
		t.Fatalf("seed other user: %v", err)
	}
	reminder := seedReminder(t, other, "", time.Now().Add(time.Hour))

	c, _ := newAuthedContext(t, user, http.MethodPost, "/v1/reminders/"+reminder.ReminderID+"/complete", "")
	c.SetParamNames("reminder_id")
	c.SetParamValues(reminder.ReminderID)

	err := CompleteReminderHandler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("Expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", httpErr.Code)
	}
}
