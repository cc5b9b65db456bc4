package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EntryChangedMessage announces that a user's entry for a day was written.
// It carries only the key; consumers read the current row from the store.
type EntryChangedMessage struct {
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryChangedMessage(userID, date string) *EntryChangedMessage {
	return &EntryChangedMessage{
		UserID:    userID,
		Date:      date,
		Timestamp: time.Now().UTC(),
	}
}

func (m *EntryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryChangedMessageFromJSON decodes a message and rejects one without a key.
func EntryChangedMessageFromJSON(data []byte) (*EntryChangedMessage, error) {
	var msg EntryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.Date == "" {
		return nil, errors.New("message missing user_id or date")
	}
	return &msg, nil
}
