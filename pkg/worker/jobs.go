package worker

import "github.com/google/uuid"

// Queue topics. The thumbnail and welcome pipelines are independent
// queue/consumer pairs.
const (
	TopicThumbnails = "thumbnails"
	TopicWelcome    = "welcome"
)

// ThumbnailJob asks for the three thumbnail widths of an uploaded image.
// UserID scopes the lookup: a job referencing someone else's file id is
// rejected, unlike plain retrieval.
type ThumbnailJob struct {
	FileID uuid.UUID `json:"fileId"`
	UserID uuid.UUID `json:"userId"`
}

// WelcomeJob asks for a welcome notification for a new account.
type WelcomeJob struct {
	UserID uuid.UUID `json:"userId"`
}
