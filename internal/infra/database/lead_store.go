package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/xavierca1/lead-capture/internal/entity"
	"github.com/xavierca1/lead-capture/internal/infra/metrics"
)

// ErrNotPersisted means neither sink accepted the lead.
var ErrNotPersisted = errors.New("lead not persisted in any sink")

// LeadStore grava cada lead no banco e espelha no CSV.
// Não é transação: se um dos sinks falhar o erro é logado e o outro segue.
type LeadStore struct {
	Repo   entity.LeadRepositoryInterface
	Log    *CSVLog
	DBPath string // vazio quando o sink relacional é Postgres
	now    func() time.Time
}

func NewLeadStore(repo entity.LeadRepositoryInterface, csvLog *CSVLog, dbPath string) *LeadStore {
	return &LeadStore{
		Repo:   repo,
		Log:    csvLog,
		DBPath: dbPath,
		now:    time.Now,
	}
}

// Initialize is safe on every process start and from concurrent workers.
func (s *LeadStore) Initialize(ctx context.Context) error {
	if err := s.Repo.CreateSchema(ctx); err != nil {
		return err
	}
	return s.Log.EnsureHeader()
}

// Save stamps CreatedAt, inserts into the relational sink (which assigns lead.ID)
// and appends the same row to the log sink. An error is returned only when
// both sinks failed.
func (s *LeadStore) Save(ctx context.Context, lead *entity.Lead) error {
	lead.CreatedAt = s.now().UTC().Truncate(time.Second)
	lead.ID = 0

	id, dbErr := s.Repo.Insert(ctx, lead)
	metrics.RecordLeadWrite(string(lead.Topic), metrics.SinkRelational, dbErr)
	if dbErr != nil {
		log.Printf("❌ [STORE] insert %s lead failed: %v", lead.Topic, dbErr)
	} else {
		lead.ID = id
	}

	csvErr := s.Log.Append(lead)
	metrics.RecordLeadWrite(string(lead.Topic), metrics.SinkLog, csvErr)
	if csvErr != nil {
		log.Printf("❌ [STORE] csv append for lead #%s failed: %v", lead.IDString(), csvErr)
	}

	if dbErr != nil && csvErr != nil {
		return fmt.Errorf("%w: db: %v; csv: %v", ErrNotPersisted, dbErr, csvErr)
	}
	return nil
}

func (s *LeadStore) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *LeadStore) List(ctx context.Context, limit int) ([]*entity.Lead, error) {
	return s.Repo.List(ctx, limit)
}

type SinkStatus struct {
	DBPath    string `json:"db_path,omitempty"`
	DBExists  bool   `json:"db_exists"`
	CSVPath   string `json:"csv_path"`
	CSVExists bool   `json:"csv_exists"`
}

func (s *LeadStore) Status(ctx context.Context) SinkStatus {
	st := SinkStatus{
		DBPath:    s.DBPath,
		CSVPath:   s.Log.Path,
		CSVExists: s.Log.Exists(),
	}
	if s.DBPath == "" {
		// Postgres: não há arquivo, consulta a tabela
		_, err := s.Repo.List(ctx, 1)
		st.DBExists = err == nil
	} else if _, err := os.Stat(s.DBPath); err == nil {
		st.DBExists = true
	}
	return st
}
