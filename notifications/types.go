// SPDX-License-Identifier: GPL-3.0-only

package notifications

type NotificationTypes string

const (
	Push NotificationTypes = "PUSH"
	SMS  NotificationTypes = "SMS"
)

type NotificationData struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type NotificationProviders string

const (
	FCM        NotificationProviders = "fcm"
	SMSGateway NotificationProviders = "sms_gateway"
	Queue      NotificationProviders = "queue"
	Mock       NotificationProviders = "mock"
)

type FCMRequest struct {
	To           string            `json:"to"`
	Notification FCMNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type FCMNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type FCMResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id,omitempty"`
		Error     string `json:"error,omitempty"`
	} `json:"results,omitempty"`
}

type SMSGatewayRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// QueuedNotification is the payload published to the notification queue for
// delivery by the worker.
type QueuedNotification struct {
	Type NotificationTypes `json:"type"`
	Data NotificationData  `json:"data"`
}
