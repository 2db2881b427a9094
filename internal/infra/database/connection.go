package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"           // Postgres quando DATABASE_URL vier preenchida
	_ "github.com/mattn/go-sqlite3" // SQLite local em DATA_DIR
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// NewDBConnection abre a conexão e testa o Ping.
// Sem databaseURL, usa um arquivo SQLite em dbPath com journal WAL e synchronous=NORMAL,
// para que leitores esperem o lock de escrita em vez de falhar.
func NewDBConnection(databaseURL, dbPath string) (*sql.DB, Dialect, error) {
	dialect := DialectSQLite
	dsn := dbPath

	if databaseURL != "" {
		dialect = DialectPostgres
		dsn = databaseURL
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, "", fmt.Errorf("create data dir: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, "", err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}

	return db, dialect, nil
}
