package entity

import (
	"context"
	"strconv"
	"time"
)

// TimeLayout é o formato de created_at nos dois sinks e na resposta JSON (UTC, segundos).
const TimeLayout = "2006-01-02T15:04:05Z"

type Topic string

const (
	TopicContact    Topic = "contact"
	TopicOpenAccess Topic = "open-access"
)

// Lead is never updated or deleted once written.
type Lead struct {
	ID             int64     `json:"id"`
	Topic          Topic     `json:"topic"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Company        string    `json:"company,omitempty"`
	SanctionedLoad string    `json:"sanctioned_load,omitempty"`
	MonthlyKWh     string    `json:"monthly_kwh,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreatedAtString formats CreatedAt with TimeLayout.
func (l *Lead) CreatedAtString() string {
	return l.CreatedAt.UTC().Format(TimeLayout)
}

// IDString returns "" while the lead has no relational id.
func (l *Lead) IDString() string {
	if l.ID <= 0 {
		return ""
	}
	return strconv.FormatInt(l.ID, 10)
}

// Attachment travels with the notification email only.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	B64         string `json:"b64"`
}

type LeadRepositoryInterface interface {
	CreateSchema(ctx context.Context) error
	Insert(ctx context.Context, lead *Lead) (int64, error)
	FindByID(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, limit int) ([]*Lead, error)
}
