package queue

import (
	"encoding/json"
	"fmt"
)

// snsEnvelope holds the SNS fields needed to unwrap a notification.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// sesNotification reads only the fields of an SES receipt notification
// needed to locate the stored message.
type sesNotification struct {
	NotificationType string `json:"notificationType"`
	Mail             struct {
		MessageID string `json:"messageId"`
	} `json:"mail"`
}

// MessageIDs extracts the SES message id carried by an SQS message body.
//
// The body is either an SNS envelope whose Message holds the SES
// notification, or the SES notification itself when raw message delivery
// is enabled on the subscription. Notifications that are not "Received"
// yield no ids. A body that is not JSON returns an error.
func MessageIDs(body string) ([]string, error) {
	payload := body

	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("queue: decode message body: %w", err)
	}
	if envelope.Type != "" {
		if envelope.Type != "Notification" {
			return nil, nil
		}
		payload = envelope.Message
	}

	var n sesNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return nil, fmt.Errorf("queue: decode SES notification: %w", err)
	}
	if n.NotificationType != "Received" {
		return nil, nil
	}
	return []string{n.Mail.MessageID}, nil
}
