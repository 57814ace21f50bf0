package archive

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rrRunerra/Lynx-sub000/internal/storage"
)

// Message is one channel message as seen by the transport, carrying just the
// fields the archival pipeline needs.
type Message struct {
	ID           string
	ChannelID    string
	AuthorID     string
	AuthorName   string
	AuthorAvatar string
	AuthorBot    bool
	AuthorRoles  []string
	Content      string
	Embeds       json.RawMessage
	Attachments  []RemoteAttachment
	Timestamp    time.Time
}

type RemoteAttachment struct {
	Name        string
	URL         string
	ContentType string
}

type MessageTransport interface {
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
}

type WebhookHandle struct {
	ID    string
	Token string
}

type WebhookMessage struct {
	Username         string
	AvatarURL        string
	Content          string
	Embeds           json.RawMessage
	Files            []File
	SuppressMentions bool
}

type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

type WebhookTransport interface {
	// EnsureWebhook returns an existing same-named webhook on the channel or
	// creates one.
	EnsureWebhook(ctx context.Context, channelID, name string) (WebhookHandle, error)
	Send(ctx context.Context, handle WebhookHandle, msg WebhookMessage) error
}

// Downloader fetches remote attachment content, either onto disk or as a
// stream.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (contentType string, err error)
	Open(ctx context.Context, url string) (io.ReadCloser, string, error)
}

// BatchStore is the persistence surface of the archival pipeline, satisfied
// by *storage.Store.
type BatchStore interface {
	CreateBatch(ctx context.Context, batch storage.ClearBatch) error
	InsertMessages(ctx context.Context, messages []storage.ArchivedMessage) error
	GetBatch(ctx context.Context, id string) (storage.ClearBatch, error)
	ListBatchMessages(ctx context.Context, batchID string) ([]storage.ArchivedMessage, error)
	ListChannelBatches(ctx context.Context, channelID string, limit int) ([]storage.ClearBatch, error)
	DeleteBatch(ctx context.Context, id string) error
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
