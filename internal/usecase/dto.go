package usecase

type CaptureLeadOutput struct {
	OK          bool   `json:"ok"`
	ID          *int64 `json:"id"` // null quando só o CSV aceitou o lead
	CreatedAt   string `json:"created_at"`
	EmailQueued bool   `json:"email_queued"`
}
