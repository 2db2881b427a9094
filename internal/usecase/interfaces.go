package usecase

import (
	"context"

	"github.com/xavierca1/lead-capture/internal/entity"
)

// LeadStore persists a lead, filling ID and CreatedAt.
type LeadStore interface {
	Save(ctx context.Context, lead *entity.Lead) error
}

// NotificationDispatcher hands a notification off without waiting for delivery.
type NotificationDispatcher interface {
	Dispatch(n entity.Notification) bool
}

type AttachmentArchive interface {
	Save(leadID int64, att entity.Attachment) (string, error)
}

type CaptureLeadUseCase struct {
	Store          LeadStore
	Notifier       NotificationDispatcher
	Attachments    AttachmentArchive // nil: anexos só seguem no email
	RequireCompany bool
}
