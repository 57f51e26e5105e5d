package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event announces a change to the content collection.
type Event struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	ContentID string       `json:"contentId"`
	Item      *ContentItem `json:"item,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

const ContentEventChannel = "portfolio:content"

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType string, item ContentItem) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ContentID: item.ID,
		Item:      &item,
		Timestamp: time.Now().UTC(),
	}
}
