package amqp

import (
	"encoding/json"
	"time"
)

// NotificationMessage is the wire format for store notifications. The
// consumer on the other side (push gateway, SMS bridge) only needs the
// rendered title and body plus routing metadata.
type NotificationMessage struct {
	StoreID   string    `json:"storeId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotificationMessage(storeID, kind, title, body string, at time.Time) *NotificationMessage {
	return &NotificationMessage{
		StoreID:   storeID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Timestamp: at,
	}
}

func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
