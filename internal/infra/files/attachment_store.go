package files

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/xavierca1/lead-capture/internal/entity"
)

// AttachmentStore keeps a copy of uploaded bills under Dir.
type AttachmentStore struct {
	Dir string
}

func NewAttachmentStore(dir string) *AttachmentStore {
	return &AttachmentStore{Dir: dir}
}

// Save writes the decoded payload to <Dir>/<leadID>-<uuid>-<basename> and returns the path.
func (s *AttachmentStore) Save(leadID int64, att entity.Attachment) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(att.B64))
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", att.Filename, err)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create attachments dir: %w", err)
	}

	name := filepath.Base(att.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "attachment"
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%d-%s-%s", leadID, uuid.NewString(), name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
