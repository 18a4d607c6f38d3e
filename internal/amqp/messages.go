package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StorageChangeMessage announces that the value under Key was replaced.
// Consumers re-read the value from the primary store; the message carries no
// payload copy.
type StorageChangeMessage struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStorageChangeMessage(key string) *StorageChangeMessage {
	return &StorageChangeMessage{Key: key, Timestamp: time.Now().UTC()}
}

func (m *StorageChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StorageChangeMessageFromJSON rejects bodies without a key.
func StorageChangeMessageFromJSON(data []byte) (*StorageChangeMessage, error) {
	msg := new(StorageChangeMessage)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode change message: %w", err)
	}
	if msg.Key == "" {
		return nil, errors.New("change message has no key")
	}
	return msg, nil
}
