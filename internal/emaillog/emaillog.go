// Package emaillog guarda en Postgres el resultado de cada email enviado.
package emaillog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type EmailStatus string

const (
	StatusSent   EmailStatus = "sent"
	StatusFailed EmailStatus = "failed"
)

// tabla de migraciones propia, el resto del schema no es nuestro
const migrationsTable = "notifier_schema_migrations"

type EmailLog struct {
	EventType      string
	RecipientEmail string
	Subject        string
	Status         EmailStatus
	ErrorMessage   string
}

// execer es la parte de *sql.DB que usa el repositorio.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type PostgresEmailRepository struct {
	db execer
}

func NewPostgresEmailRepository(db *sql.DB) *PostgresEmailRepository {
	return &PostgresEmailRepository{db: db}
}

const insertLog = `
	INSERT INTO email_logs (event_type, recipient_email, subject, status, error_message)
	VALUES ($1, $2, $3, $4, $5);
`

func (r *PostgresEmailRepository) SaveLog(ctx context.Context, l EmailLog) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, insertLog, l.EventType, l.RecipientEmail, l.Subject, string(l.Status), nullable(l.ErrorMessage)); err != nil {
		return fmt.Errorf("failed to insert email log: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Open aplica las migraciones pendientes y abre la conexión.
func Open(databaseURL, migrationsPath string) (*sql.DB, error) {
	m, err := migrate.New(migrationsPath, withMigrationsTable(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		return nil, fmt.Errorf("close migrations: %v", errors.Join(srcErr, dbErr))
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func withMigrationsTable(databaseURL string) string {
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "x-migrations-table=" + migrationsTable
}
