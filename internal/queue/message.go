package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageVersion is the current payload schema version.
const MessageVersion = 1

// Message is a processing job sent to downstream queue consumers. One
// message covers a batch of uploaded documents for a single owner.
type Message struct {
	JobID         string   `json:"jobId"`
	OwnerID       string   `json:"ownerId"`
	Email         string   `json:"email,omitempty"`
	ContentHashes []string `json:"contentHashes"`
	RequestID     string   `json:"requestId,omitempty"`
	EnqueuedAt    string   `json:"enqueuedAt"`
	Version       int      `json:"version"`
}

// NewMessage builds a job message with a fresh job id and timestamp.
func NewMessage(ownerID, email string, contentHashes []string, requestID string) Message {
	return Message{
		JobID:         uuid.NewString(),
		OwnerID:       ownerID,
		Email:         email,
		ContentHashes: contentHashes,
		RequestID:     requestID,
		EnqueuedAt:    time.Now().UTC().Format(time.RFC3339),
		Version:       MessageVersion,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
