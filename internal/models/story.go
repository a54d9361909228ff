package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story represents a user's ephemeral story stored in MongoDB.
// Expiry is enforced by a TTL index on expires_at; queries additionally
// filter on expires_at so the contract holds between TTL sweeps.
type Story struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     uint               `json:"user_id" bson:"user_id"`
	Media      StoryMedia         `json:"media" bson:"media"`
	Caption    string             `json:"caption,omitempty" bson:"caption,omitempty"`
	DurationMs int                `json:"duration_ms" bson:"duration_ms"`
	Locations  []StoryLocation    `json:"locations,omitempty" bson:"locations,omitempty"`
	Views      []StoryView        `json:"-" bson:"views"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time          `json:"expires_at" bson:"expires_at"`
}

// StoryMedia is the media reference of a story
type StoryMedia struct {
	URL  string `json:"url" bson:"url"`
	Type string `json:"type" bson:"type"` // "image" or "video"
}

// StoryLocation is an optional place tag attached to a story
type StoryLocation struct {
	Name string  `json:"name" bson:"name"`
	Lat  float64 `json:"lat" bson:"lat"`
	Lng  float64 `json:"lng" bson:"lng"`
}

// StoryView records that a viewer has seen a story. At most one view
// exists per (story, viewer) pair; the repository enforces this with an
// atomic guarded append rather than a read-modify-write.
type StoryView struct {
	ViewerID uint      `json:"viewer_id" bson:"viewer_id"`
	ViewedAt time.Time `json:"viewed_at" bson:"viewed_at"`
}

// CreateStoryRequest defines the request body for creating a story
type CreateStoryRequest struct {
	MediaURL   string          `json:"media_url" validate:"required,url"`
	Type       string          `json:"type" validate:"required,oneof=image video"`
	Caption    string          `json:"caption" validate:"omitempty,max=500"`
	DurationMs int             `json:"duration_ms" validate:"omitempty,min=1000,max=30000"`
	Locations  []StoryLocation `json:"locations" validate:"omitempty,dive"`
}

// StoryViewer is a view record with the viewer resolved to display info
type StoryViewer struct {
	Viewer   UserCompact `json:"viewer"`
	ViewedAt time.Time   `json:"viewed_at"`
}

// StoryGroup bundles one owner's live stories for the following feed.
// HasUnseen is true when at least one story in the group has no view by
// the requesting user.
type StoryGroup struct {
	Owner     UserCompact `json:"owner"`
	Stories   []Story     `json:"stories"`
	HasUnseen bool        `json:"has_unseen"`
}
