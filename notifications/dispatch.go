// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"fmt"

	"reachcrm-server/commons"
	"reachcrm-server/rabbitmq"
)

// QueuePublisher is wired at startup when an AMQP broker is configured; nil
// means queue dispatch is unavailable and direct providers are used.
var QueuePublisher *rabbitmq.Client

func DispatchNotification(_type NotificationTypes, provider NotificationProviders, data NotificationData) error {
	commons.Logger.Debugf("Dispatching notification:\n- type=%s\n- provider=%s", _type, provider)

	if commons.GetEnv("MOCK_NOTIFICATIONS") == "true" {
		commons.Logger.Debug("Mock notifications enabled, using mock provider")
		provider = Mock
	}

	var err error
	switch provider {
	case Mock:
		err = MockClient(_type, data)
	case Queue:
		err = dispatchQueued(_type, data)
	default:
		switch _type {
		case Push:
			err = dispatchPush(provider, data)
		case SMS:
			err = dispatchSMS(provider, data)
		default:
			err = fmt.Errorf("unsupported notification type: %s", _type)
		}
	}

	if err != nil {
		commons.Logger.Errorf("Failed to dispatch notification:\n%v", err)
		return err
	}

	commons.Logger.Infof("Notification dispatched successfully:\n- type=%s\n- provider=%s", _type, provider)
	return nil
}

func dispatchPush(provider NotificationProviders, data NotificationData) error {
	switch provider {
	case FCM:
		return FCMClient(data)
	default:
		return fmt.Errorf("unsupported push provider: %s", provider)
	}
}

func dispatchSMS(provider NotificationProviders, data NotificationData) error {
	switch provider {
	case SMSGateway:
		return SMSGatewayClient(data)
	default:
		return fmt.Errorf("unsupported sms provider: %s", provider)
	}
}

func dispatchQueued(_type NotificationTypes, data NotificationData) error {
	if QueuePublisher == nil {
		return fmt.Errorf("notification queue is not configured")
	}
	routingKey := rabbitmq.PushRoutingKey
	if _type == SMS {
		routingKey = rabbitmq.SMSRoutingKey
	}
	return QueuePublisher.Publish(routingKey, QueuedNotification{Type: _type, Data: data})
}

// DefaultProvider picks the configured provider for a notification type,
// preferring the queue when a broker is wired.
func DefaultProvider(_type NotificationTypes) NotificationProviders {
	if QueuePublisher != nil {
		return Queue
	}
	switch _type {
	case Push:
		if commons.GetEnv("FCM_SERVER_KEY") != "" {
			return FCM
		}
	case SMS:
		if commons.GetEnv("SMS_GATEWAY_URL") != "" {
			return SMSGateway
		}
	}
	return Mock
}
