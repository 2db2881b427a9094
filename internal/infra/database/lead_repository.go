package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xavierca1/lead-capture/internal/entity"
)

var ErrLeadNotFound = errors.New("lead not found")

// LeadRepository is the relational sink. The database assigns ids.
type LeadRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewLeadRepository(db *sql.DB, dialect Dialect) *LeadRepository {
	return &LeadRepository{DB: db, Dialect: dialect}
}

const leadColumns = "id, topic, name, email, phone, company, sanctioned_load, monthly_kwh, message, created_at"

func (r *LeadRepository) CreateSchema(ctx context.Context) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.Dialect == DialectPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	query := `
		CREATE TABLE IF NOT EXISTS leads (
			id ` + pk + `,
			topic TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			sanctioned_load TEXT NOT NULL DEFAULT '',
			monthly_kwh TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`

	if _, err := r.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create leads table: %w", err)
	}
	return nil
}

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) (int64, error) {
	args := []any{
		string(lead.Topic),
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.SanctionedLoad,
		lead.MonthlyKWh,
		lead.Message,
		lead.CreatedAtString(),
	}

	query := `
		INSERT INTO leads (topic, name, email, phone, company, sanctioned_load, monthly_kwh, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if r.Dialect == DialectPostgres {
		var id int64
		err := r.DB.QueryRowContext(ctx, r.rebind(query)+" RETURNING id", args...).Scan(&id)
		if err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *LeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, r.rebind("SELECT "+leadColumns+" FROM leads WHERE id = ?"), id)

	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	return lead, err
}

// List returns the most recent leads first.
func (r *LeadRepository) List(ctx context.Context, limit int) ([]*entity.Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, r.rebind("SELECT "+leadColumns+" FROM leads ORDER BY id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner) (*entity.Lead, error) {
	var (
		lead      entity.Lead
		topic     string
		createdAt string
	)

	err := s.Scan(
		&lead.ID,
		&topic,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.SanctionedLoad,
		&lead.MonthlyKWh,
		&lead.Message,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Topic = entity.Topic(topic)
	if lead.CreatedAt, err = time.Parse(entity.TimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("lead %d: bad created_at %q: %w", lead.ID, createdAt, err)
	}
	return &lead, nil
}

// rebind troca "?" por "$n" no Postgres.
func (r *LeadRepository) rebind(query string) string {
	if r.Dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
