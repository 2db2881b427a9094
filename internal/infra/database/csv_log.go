package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/xavierca1/lead-capture/internal/entity"
)

var csvHeader = []string{
	"id", "topic", "name", "email", "phone", "company",
	"sanctioned_load", "monthly_kwh", "message", "created_at",
}

// CSVLog is the append-only export sink. The mutex only covers this process;
// appends from other processes are not coordinated.
type CSVLog struct {
	Path string
	mu   sync.Mutex
}

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{Path: path}
}

// EnsureHeader creates the file with a header row when it does not exist yet.
func (c *CSVLog) EnsureHeader() error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(c.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", c.Path, err)
	}
	defer f.Close()

	return writeRow(f, csvHeader)
}

func (c *CSVLog) Append(lead *entity.Lead) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Path, err)
	}
	defer f.Close()

	return writeRow(f, []string{
		lead.IDString(),
		string(lead.Topic),
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.SanctionedLoad,
		lead.MonthlyKWh,
		lead.Message,
		lead.CreatedAtString(),
	})
}

// Records reads every data row, keyed by column name.
func (c *CSVLog) Records() ([]map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []map[string]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(map[string]string, len(header))
		for i, col := range header {
			rec[col] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *CSVLog) Exists() bool {
	_, err := os.Stat(c.Path)
	return err == nil
}

func writeRow(w io.Writer, row []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
