package domain

import "context"

// AttachmentKind mirrors the two media types Telegram accepts in a group.
type AttachmentKind string

const (
	AttachmentPhoto AttachmentKind = "photo"
	AttachmentVideo AttachmentKind = "video"
)

// Attachment is a single chat-deliverable media item. Payload is either a
// reference URL (Telegram fetches it) or raw bytes for inline upload; Bytes
// takes precedence when set. Only the first attachment of a group carries
// a caption.
type Attachment struct {
	Kind    AttachmentKind
	URL     string
	Bytes   []byte
	Caption string
}

// MessageRef identifies a sent message so its owner can delete it later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Sender is the outbound messaging surface the relay pipeline needs.
// Implemented by internal/telegram; faked in tests.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (MessageRef, error)
	SendPhoto(ctx context.Context, chatID int64, att Attachment) (MessageRef, error)
	SendMediaGroup(ctx context.Context, chatID int64, atts []Attachment) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
}
