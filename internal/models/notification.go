package models

import "time"

// Notification kinds persisted in the ledger and carried on realtime payloads.
const (
	NotificationComment   = "comment"
	NotificationLike      = "like"
	NotificationFollow    = "follow"
	NotificationBooking   = "booking"
	NotificationSystem    = "system"
	NotificationStoryView = "story_view"
	NotificationNewStory  = "new_story"
)

// Notification is a durable user notification (PostgreSQL). RecipientID
// never changes after creation and IsRead only transitions false -> true.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     uint      `json:"actor_id,omitempty" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	Payload     string    `json:"payload,omitempty"` // free-form JSON
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
