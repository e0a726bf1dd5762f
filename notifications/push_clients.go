// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"reachcrm-server/commons"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

func MockClient(_type NotificationTypes, data NotificationData) error {
	commons.Logger.Infof("=== MOCK %s NOTIFICATION ===", _type)
	commons.Logger.Infof("To: %s", data.To)
	if data.Title != "" {
		commons.Logger.Infof("Title: %s", data.Title)
	}
	commons.Logger.Infof("Body: %s", data.Body)
	for key, value := range data.Data {
		commons.Logger.Infof("  %s: %s", key, value)
	}
	commons.Logger.Infof("=== END MOCK %s NOTIFICATION ===", _type)
	return nil
}

// FCMClient delivers a push notification through the FCM HTTP API. The
// recipient is the device registration token.
func FCMClient(data NotificationData) error {
	serverKey := commons.GetEnv("FCM_SERVER_KEY")
	if serverKey == "" {
		return fmt.Errorf("FCM_SERVER_KEY environment variable is not set")
	}
	endpoint := commons.GetEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send")

	payload := FCMRequest{
		To: data.To,
		Notification: FCMNotification{
			Title: data.Title,
			Body:  data.Body,
		},
		Data: data.Data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+serverKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fcm request failed: %s", resp.Status)
	}

	var fcmResp FCMResponse
	if err := json.NewDecoder(resp.Body).Decode(&fcmResp); err != nil {
		return fmt.Errorf("fcm response decode failed: %w", err)
	}
	if fcmResp.Failure > 0 {
		for _, result := range fcmResp.Results {
			if result.Error != "" {
				return fmt.Errorf("fcm delivery failed: %s", result.Error)
			}
		}
		return fmt.Errorf("fcm delivery failed")
	}
	return nil
}

// SMSGatewayClient posts an SMS to a generic JSON gateway. The recipient is
// an E.164 phone number.
func SMSGatewayClient(data NotificationData) error {
	gatewayURL := commons.GetEnv("SMS_GATEWAY_URL")
	if gatewayURL == "" {
		return fmt.Errorf("SMS_GATEWAY_URL environment variable is not set")
	}

	body, err := json.Marshal(SMSGatewayRequest{
		To:      data.To,
		Message: data.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey := commons.GetEnv("SMS_GATEWAY_API_KEY"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway request failed: %s", resp.Status)
	}
	return nil
}
