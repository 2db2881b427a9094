package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/xavierca1/lead-capture/internal/usecase"
)

// MaxBodyBytes limita o JSON inteiro, incluindo a conta de energia em base64.
const MaxBodyBytes = 10 << 20

type LeadHandler struct {
	CaptureUC *usecase.CaptureLeadUseCase
}

func NewLeadHandler(uc *usecase.CaptureLeadUseCase) *LeadHandler {
	return &LeadHandler{CaptureUC: uc}
}

// Contact handles POST /api/contact.
func (h *LeadHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.capture(w, r, "contact", h.CaptureUC.CaptureContact)
}

// OpenAccess handles POST /api/openaccess and its /api/oa-inquiry alias.
func (h *LeadHandler) OpenAccess(w http.ResponseWriter, r *http.Request) {
	h.capture(w, r, "openaccess", h.CaptureUC.CaptureOpenAccess)
}

type captureFunc func(ctx context.Context, raw usecase.RawInput) (*usecase.CaptureLeadOutput, error)

func (h *LeadHandler) capture(w http.ResponseWriter, r *http.Request, route string, fn captureFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw usecase.RawInput
	if err := dec.Decode(&raw); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Input too long")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	output, err := fn(r.Context(), raw)
	if err != nil {
		if ve, ok := usecase.AsValidationError(err); ok {
			status, msg := http.StatusBadRequest, "Invalid input"
			if ve.TooLong {
				status, msg = http.StatusRequestEntityTooLarge, "Input too long"
			}
			writeJSON(w, status, ErrorResponse{OK: false, Error: msg, Field: ve.Field, Reason: ve.Message})
			return
		}

		log.Printf("❌ [%s] %v", route, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, output)
}
