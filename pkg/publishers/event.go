package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/randfav/internal/domain"
)

// Event represents a pick published downstream.
type Event struct {
	ID         string        `json:"id"`
	SourceID   string        `json:"source_id"`
	Username   string        `json:"username"`
	Target     domain.Target `json:"target"`
	Item       domain.Item   `json:"item"`
	TotalItems int           `json:"total_items"`
	PickedAt   time.Time     `json:"picked_at"`
}

// NewEvent constructs an Event for a pick of item among total favorites.
func NewEvent(sourceID, username string, target domain.Target, item domain.Item, total int) Event {
	return Event{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		Username:   username,
		Target:     target,
		Item:       item,
		TotalItems: total,
		PickedAt:   time.Now().UTC(),
	}
}

// attributes are the string attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":  e.ID,
		"source_id": e.SourceID,
		"username":  e.Username,
	}
}
