package domain

import "time"

// Attachment references an uploaded file linked to a ticket. Storage
// itself is external; only metadata is kept here.
type Attachment struct {
	ID         string
	TicketID   string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	UploadedBy string
	CreatedAt  time.Time
}
