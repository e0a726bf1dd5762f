// SPDX-License-Identifier: GPL-3.0-only

package handlers

import "time"

type PaginationDetails struct {
	Total int64 `json:"total" example:"120"`
	Page  int   `json:"page" example:"1"`
	Limit int   `json:"limit" example:"20"`
}

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" example:"+237123456789"`
}

type SendOTPResponse struct {
	PhoneNumber string `json:"phone_number" example:"+237123456789"`
	ExpiresIn   int    `json:"expires_in" example:"300"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" example:"+237123456789"`
	Code        string `json:"code" example:"123456"`
	FullName    string `json:"full_name,omitempty" example:"Jane Doe"`
	Email       string `json:"email,omitempty" example:"jane@example.com"`
	DeviceToken string `json:"device_token,omitempty"`
}

type VerifyOTPResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	AccountID    string `json:"account_id" example:"acct_abc123"`
	PhoneNumber  string `json:"phone_number" example:"+237123456789"`
	Email        string `json:"email,omitempty" example:"jane@example.com"`
	FullName     string `json:"full_name,omitempty" example:"Jane Doe"`
	ContactCount int64  `json:"contact_count" example:"42"`
}

type ContactRequest struct {
	Name     string `json:"name" example:"John Smith"`
	Email    string `json:"email,omitempty" example:"john@acme.com"`
	Phone    string `json:"phone,omitempty" example:"+14155550123"`
	Company  string `json:"company,omitempty" example:"Acme Inc"`
	Position string `json:"position,omitempty" example:"CTO"`
	Industry string `json:"industry,omitempty" example:"Manufacturing"`
	Notes    string `json:"notes,omitempty"`
}

type ContactResponse struct {
	ContactID string    `json:"contact_id" example:"ct_abc123"`
	Name      string    `json:"name" example:"John Smith"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Position  string    `json:"position,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ContactListResponse struct {
	Contacts   []ContactResponse `json:"contacts"`
	Pagination PaginationDetails `json:"pagination"`
}

type ImportContactsRequest struct {
	Rows          []map[string]string `json:"rows"`
	Mapping       map[string]string   `json:"mapping,omitempty"`
	DefaultRegion string              `json:"default_region,omitempty" example:"US"`
}

type ImportAcceptedResponse struct {
	JobID string `json:"job_id" example:"7f6bfba2-52a1-4a58-b7c1-2d9f47c1a9e0"`
}

type InteractionRequest struct {
	ContactID  string     `json:"contact_id" example:"ct_abc123"`
	Type       string     `json:"type" example:"CALL"`
	Summary    string     `json:"summary" example:"Discussed renewal terms"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

type InteractionResponse struct {
	InteractionID string    `json:"interaction_id" example:"int_abc123"`
	ContactID     string    `json:"contact_id" example:"ct_abc123"`
	Type          string    `json:"type" example:"CALL"`
	Summary       string    `json:"summary"`
	OccurredAt    time.Time `json:"occurred_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type OpportunityRequest struct {
	Title         string     `json:"title" example:"Q3 licensing deal"`
	Stage         string     `json:"stage" example:"LEAD"`
	ValueCents    int64      `json:"value_cents" example:"500000"`
	Currency      string     `json:"currency" example:"USD"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ContactID     string     `json:"contact_id,omitempty" example:"ct_abc123"`
}

type OpportunityResponse struct {
	OpportunityID string     `json:"opportunity_id" example:"opp_abc123"`
	Title         string     `json:"title"`
	Stage         string     `json:"stage"`
	ValueCents    int64      `json:"value_cents"`
	Currency      string     `json:"currency"`
	ExpectedClose *time.Time `json:"expected_close,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ContactID     string     `json:"contact_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ReminderRequest struct {
	Title      string    `json:"title" example:"Follow up on proposal"`
	DueDate    time.Time `json:"due_date"`
	Type       string    `json:"type,omitempty" example:"FOLLOW_UP"`
	Priority   string    `json:"priority,omitempty" example:"HIGH"`
	Recurrence string    `json:"recurrence,omitempty" example:"weekly"`
	ContactID  string    `json:"contact_id,omitempty" example:"ct_abc123"`
}

type ReminderResponse struct {
	ReminderID   string    `json:"reminder_id" example:"rem_abc123"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"due_date"`
	Type         string    `json:"type,omitempty"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	Recurrence   string    `json:"recurrence,omitempty"`
	SnoozedCount uint      `json:"snoozed_count"`
	ContactID    string    `json:"contact_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SnoozeReminderRequest struct {
	Minutes int `json:"minutes" example:"30"`
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty" example:"conv_abc123"`
	Message        string `json:"message" example:"Draft a follow-up email for John Smith"`
}

type ChatResponse struct {
	ConversationID string `json:"conversation_id" example:"conv_abc123"`
	Reply          string `json:"reply"`
}

type ConversationResponse struct {
	ConversationID string    `json:"conversation_id" example:"conv_abc123"`
	Title          string    `json:"title,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChatMessageResponse struct {
	Role      string    `json:"role" example:"USER"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type UploadResponse struct {
	ObjectKey string `json:"object_key" example:"acct_abc123/7f6bfba2.pdf"`
	URL       string `json:"url"`
	Size      int64  `json:"size" example:"204800"`
}

type ScanUploadRequest struct {
	ObjectKey     string `json:"object_key" example:"acct_abc123/7f6bfba2.pdf"`
	DefaultRegion string `json:"default_region,omitempty" example:"US"`
}

type CheckoutRequest struct {
	Plan string `json:"plan" example:"BASE"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type SubscriptionResponse struct {
	Plan        string     `json:"plan" example:"BASE"`
	Status      string     `json:"status" example:"ACTIVE"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	MaxContacts int64      `json:"max_contacts" example:"250000"`
}

type UsageResponse struct {
	Plan         string `json:"plan" example:"FREE"`
	ContactCount int64  `json:"contact_count" example:"42"`
	MaxContacts  int64  `json:"max_contacts" example:"50"`
	Remaining    int64  `json:"remaining" example:"8"`
}

type EventLogResponse struct {
	EID         string    `json:"eid"`
	Category    string    `json:"category,omitempty" example:"IMPORT"`
	Status      string    `json:"status,omitempty" example:"SUCCEEDED"`
	JobID       string    `json:"job_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type EventLogListResponse struct {
	Events     []EventLogResponse `json:"events"`
	Pagination PaginationDetails  `json:"pagination"`
}
