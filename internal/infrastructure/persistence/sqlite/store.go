// Package sqlite provides a SQLite-backed user store for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
	"github.com/scalpr/scalp/internal/infrastructure/persistence"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const userColumns = `id, email, name, picture, google_id, wallet_address, created_at`

const (
	insertUserSQL = `INSERT INTO users (email, name, picture, google_id, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + userColumns
	updateByEmailSQL = `UPDATE users SET name = ?, picture = ?, google_id = COALESCE(?, google_id)
WHERE email = ?
RETURNING ` + userColumns
	updateByGoogleIDSQL = `UPDATE users SET name = ?, picture = ?
WHERE google_id = ?
RETURNING ` + userColumns
	setWalletSQL = `UPDATE users SET wallet_address = ? WHERE id = ? AND wallet_address IS NULL`
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements ports.UserStore over a single SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the bundled schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite has a single writer; one connection keeps writes from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	return persistence.ApplyMigrations(migrationsFS, "migrations/*.sql", func(content string) error {
		_, err := s.db.Exec(content)
		return err
	})
}

func (s *Store) Insert(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, insertUserSQL,
		claims.Email, claims.Name, nullString(claims.Picture), subject(claims), toMillis(s.now()))
	return s.scanWrite(row)
}

func (s *Store) UpdateProfileByEmail(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, updateByEmailSQL,
		claims.Name, nullString(claims.Picture), subject(claims), claims.Email)
	return s.scanWrite(row)
}

func (s *Store) UpdateProfileByGoogleID(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	if !claims.HasSubject() {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, updateByGoogleIDSQL,
		claims.Name, nullString(claims.Picture), *claims.ProviderSubjectID)
	return s.scanWrite(row)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return s.getBy(ctx, "google_id", googleID)
}

func (s *Store) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.getBy(ctx, "id", int64(id))
}

func (s *Store) GetByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	return s.getBy(ctx, "wallet_address", address)
}

func (s *Store) SetWalletAddressIfAbsent(ctx context.Context, id domain.UserID, address string) (bool, error) {
	res, err := s.db.ExecContext(ctx, setWalletSQL, address, int64(id))
	if err != nil {
		if isUniqueViolation(err) {
			return false, domerrors.ErrDuplicate
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// getBy only receives column names from this file.
func (s *Store) getBy(ctx context.Context, column string, value any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

// scanWrite scans the RETURNING row of a write. No row means nothing matched.
func (s *Store) scanWrite(row *sql.Row) (*domain.User, error) {
	user, err := scanUser(row)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case isUniqueViolation(err):
		return nil, domerrors.ErrDuplicate
	default:
		return nil, err
	}
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		id        int64
		u         domain.User
		picture   sql.NullString
		googleID  sql.NullString
		wallet    sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &u.Email, &u.Name, &picture, &googleID, &wallet, &createdAt); err != nil {
		return nil, err
	}
	u.ID = domain.UserID(id)
	u.Picture = stringPtr(picture)
	u.GoogleID = stringPtr(googleID)
	u.WalletAddress = stringPtr(wallet)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func subject(claims domain.IdentityClaims) sql.NullString {
	if !claims.HasSubject() {
		return sql.NullString{}
	}
	return sql.NullString{String: *claims.ProviderSubjectID, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ ports.UserStore = (*Store)(nil)
