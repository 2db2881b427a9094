package entity

// Notification is the operator email summarizing one lead.
type Notification struct {
	LeadID      int64        `json:"lead_id"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	ReplyTo     string       `json:"reply_to"`
	Attachments []Attachment `json:"attachments,omitempty"`
}
