package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/xavierca1/lead-capture/internal/entity"
)

func NewCaptureLeadUseCase(
	store LeadStore,
	notifier NotificationDispatcher,
	attachments AttachmentArchive,
	requireCompany bool,
) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Store:          store,
		Notifier:       notifier,
		Attachments:    attachments,
		RequireCompany: requireCompany,
	}
}

func (uc *CaptureLeadUseCase) CaptureContact(ctx context.Context, raw RawInput) (*CaptureLeadOutput, error) {
	f, err := ValidateContact(raw)
	if err != nil {
		return nil, err
	}

	lead := &entity.Lead{
		Topic:   entity.TopicContact,
		Name:    f.Name,
		Email:   f.Email,
		Message: f.Message,
	}

	if err := uc.save(ctx, lead); err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Topic: CONTACT\nName: %s\nEmail: %s\n\n%s\n%s",
		lead.Name, lead.Email, lead.Message, leadFooter(lead))

	queued := uc.Notifier.Dispatch(entity.Notification{
		LeadID:  lead.ID,
		Subject: "New website inquiry from " + lead.Name,
		Body:    body,
		ReplyTo: lead.Email,
	})

	return output(lead, queued), nil
}

func (uc *CaptureLeadUseCase) CaptureOpenAccess(ctx context.Context, raw RawInput) (*CaptureLeadOutput, error) {
	f, err := ValidateOpenAccess(raw, uc.RequireCompany)
	if err != nil {
		return nil, err
	}

	callback := "No"
	if f.Callback {
		callback = "Yes"
	}

	var summary strings.Builder
	summary.WriteString("[Open Access Inquiry]\n")
	if f.Company != "" {
		fmt.Fprintf(&summary, "Company: %s\n", f.Company)
	}
	fmt.Fprintf(&summary, "Phone: %s\nSanctioned Load (kVA): %s\nMonthly (kWh): %s\nCallback: %s",
		f.Phone, f.SanctionedLoad, f.MonthlyKWh, callback)

	lead := &entity.Lead{
		Topic:          entity.TopicOpenAccess,
		Name:           f.Name,
		Email:          f.Email,
		Phone:          f.Phone,
		Company:        f.Company,
		SanctionedLoad: f.SanctionedLoad,
		MonthlyKWh:     f.MonthlyKWh,
		Message:        summary.String(),
	}

	if err := uc.save(ctx, lead); err != nil {
		return nil, err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Topic: OPEN ACCESS\nName: %s\nEmail: %s\n", lead.Name, lead.Email)
	if lead.Company != "" {
		fmt.Fprintf(&body, "Company: %s\n", lead.Company)
	}
	fmt.Fprintf(&body, "Phone: %s\nSanctioned Load (kVA): %s\nMonthly Consumption (kWh): %s\nCallback: %s\n\n%s",
		lead.Phone, lead.SanctionedLoad, lead.MonthlyKWh, callback, leadFooter(lead))

	var attachments []entity.Attachment
	if f.Attachment != nil {
		attachments = append(attachments, *f.Attachment)
		uc.archive(lead, *f.Attachment)
	}

	queued := uc.Notifier.Dispatch(entity.Notification{
		LeadID:      lead.ID,
		Subject:     "Open Access Inquiry",
		Body:        body.String(),
		ReplyTo:     lead.Email,
		Attachments: attachments,
	})

	return output(lead, queued), nil
}

func (uc *CaptureLeadUseCase) save(ctx context.Context, lead *entity.Lead) error {
	if err := uc.Store.Save(ctx, lead); err != nil {
		return &TechnicalError{Code: "STORAGE_ERROR", Message: "failed to persist lead", Err: err}
	}
	return nil
}

// archive nunca falha a requisição: o anexo já segue no email.
func (uc *CaptureLeadUseCase) archive(lead *entity.Lead, att entity.Attachment) {
	if uc.Attachments == nil {
		return
	}
	path, err := uc.Attachments.Save(lead.ID, att)
	if err != nil {
		log.Printf("❌ [ATTACHMENT] lead #%s: %v", lead.IDString(), err)
		return
	}
	log.Printf("📎 [ATTACHMENT] lead #%s saved to %s", lead.IDString(), path)
}

func leadFooter(lead *entity.Lead) string {
	id := lead.IDString()
	if id == "" {
		id = "n/a"
	}
	return fmt.Sprintf("(Lead #%s at %s)", id, lead.CreatedAtString())
}

func output(lead *entity.Lead, queued bool) *CaptureLeadOutput {
	out := &CaptureLeadOutput{
		OK:          true,
		CreatedAt:   lead.CreatedAtString(),
		EmailQueued: queued,
	}
	if lead.ID > 0 {
		id := lead.ID
		out.ID = &id
	}
	return out
}
