package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/lead-capture/internal/entity"
)

const (
	MaxNameLen    = 120
	MaxEmailLen   = 200
	MaxMessageLen = 8000
	MaxCompanyLen = 200
	MaxPhoneLen   = 40
	MaxFigureLen  = 40
)

// Um "@", e pelo menos um ponto no domínio. Não verifica se a caixa existe.
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// RawInput is a decoded JSON object as submitted by the form.
type RawInput map[string]any

type ValidationError struct {
	Field   string
	Message string
	TooLong bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ContactFields struct {
	Name    string
	Email   string
	Message string
}

type OpenAccessFields struct {
	Name           string
	Email          string
	Phone          string
	Company        string
	SanctionedLoad string
	MonthlyKWh     string
	Callback       bool
	Attachment     *entity.Attachment
}

// ValidateContact checks presence and format first (400) and lengths after (413).
func ValidateContact(raw RawInput) (ContactFields, error) {
	var f ContactFields
	var err error

	if f.Name, err = requiredText(raw, "name"); err != nil {
		return f, err
	}
	if f.Email, err = emailField(raw); err != nil {
		return f, err
	}
	if f.Message, err = requiredText(raw, "message"); err != nil {
		return f, err
	}

	return f, firstTooLong(
		lengthRule{"name", f.Name, MaxNameLen},
		lengthRule{"email", f.Email, MaxEmailLen},
		lengthRule{"message", f.Message, MaxMessageLen},
	)
}

func ValidateOpenAccess(raw RawInput, requireCompany bool) (OpenAccessFields, error) {
	var f OpenAccessFields
	var err error

	if f.Name, err = requiredText(raw, "name"); err != nil {
		return f, err
	}
	if f.Email, err = emailField(raw); err != nil {
		return f, err
	}
	if f.Phone, err = phoneField(raw); err != nil {
		return f, err
	}
	if f.Company, err = optionalText(raw, "company"); err != nil {
		return f, err
	}
	if requireCompany && f.Company == "" {
		return f, &ValidationError{Field: "company", Message: "is required"}
	}
	if f.SanctionedLoad, err = figureField(raw, "sanctioned_load"); err != nil {
		return f, err
	}
	if f.MonthlyKWh, err = figureField(raw, "monthly_kwh"); err != nil {
		return f, err
	}
	f.Callback = truthy(raw["callback"])
	f.Attachment = attachmentField(raw)

	return f, firstTooLong(
		lengthRule{"name", f.Name, MaxNameLen},
		lengthRule{"email", f.Email, MaxEmailLen},
		lengthRule{"phone", f.Phone, MaxPhoneLen},
		lengthRule{"company", f.Company, MaxCompanyLen},
		lengthRule{"sanctioned_load", f.SanctionedLoad, MaxFigureLen},
		lengthRule{"monthly_kwh", f.MonthlyKWh, MaxFigureLen},
	)
}

type lengthRule struct {
	field string
	value string
	max   int
}

func firstTooLong(rules ...lengthRule) error {
	for _, r := range rules {
		if utf8.RuneCountInString(r.value) > r.max {
			return &ValidationError{
				Field:   r.field,
				Message: fmt.Sprintf("must not exceed %d characters", r.max),
				TooLong: true,
			}
		}
	}
	return nil
}

func optionalText(raw RawInput, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: key, Message: "must be a string"}
	}
	return strings.TrimSpace(s), nil
}

// phoneField accepts a string or a bare JSON number.
func phoneField(raw RawInput) (string, error) {
	switch v := raw["phone"].(type) {
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return optionalText(raw, "phone")
}

func requiredText(raw RawInput, key string) (string, error) {
	s, err := optionalText(raw, key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ValidationError{Field: key, Message: "is required"}
	}
	return s, nil
}

func emailField(raw RawInput) (string, error) {
	email, err := requiredText(raw, "email")
	if err != nil {
		return "", err
	}
	if !emailRegex.MatchString(email) {
		return "", &ValidationError{Field: "email", Message: "is invalid"}
	}
	return email, nil
}

// figureField aceita string ou número e guarda como texto, sem validar o valor.
func figureField(raw RawInput, key string) (string, error) {
	var s string
	switch v := raw[key].(type) {
	case nil:
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "", &ValidationError{Field: key, Message: "must be a string or a number"}
	}
	if s == "" {
		return "", &ValidationError{Field: key, Message: "is required"}
	}
	return s, nil
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1", "on":
			return true
		}
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case float64:
		return b != 0
	}
	return false
}

// attachmentField lê "eb_bill" ou "attachment"; sem b64 não há anexo.
func attachmentField(raw RawInput) *entity.Attachment {
	for _, key := range []string{"eb_bill", "attachment"} {
		obj, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		b64, _ := obj["b64"].(string)
		if strings.TrimSpace(b64) == "" {
			continue
		}

		att := &entity.Attachment{Filename: "attachment", ContentType: "application/octet-stream", B64: b64}
		if name, _ := obj["filename"].(string); strings.TrimSpace(name) != "" {
			att.Filename = strings.TrimSpace(name)
		}
		if ctype, _ := obj["content_type"].(string); strings.TrimSpace(ctype) != "" {
			att.ContentType = strings.TrimSpace(ctype)
		}
		return att
	}
	return nil
}
