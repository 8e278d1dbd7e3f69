package registry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sachima/sachima/internal/logging"
	"github.com/sachima/sachima/internal/metrics"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// uniqueViolation is the SQLSTATE PostgreSQL reports for a UNIQUE conflict.
const uniqueViolation = "23505"

// Postgres is a Registry backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to databaseURL.
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Migrate applies the embedded schema files in name order.
func (p *Postgres) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}

	for _, f := range files {
		logging.Info("running migration", zap.String("file", path.Base(f)))
		content, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := p.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
	}

	return nil
}

func (p *Postgres) FindByUsername(ctx context.Context, username string) (*User, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("find_user", time.Since(start)) }()

	var u User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM registry WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) Insert(ctx context.Context, u *User) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert_user", time.Since(start)) }()

	err := p.db.QueryRowContext(ctx,
		`INSERT INTO registry (username, password) VALUES ($1, $2) RETURNING id`,
		u.Username, u.Password).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
