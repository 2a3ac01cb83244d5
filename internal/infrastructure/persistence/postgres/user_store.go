package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scalpr/scalp/internal/application/ports"
	"github.com/scalpr/scalp/internal/domain"
	domerrors "github.com/scalpr/scalp/internal/domain/errors"
)

const uniqueViolation = "23505"

const userColumns = `id, email, name, picture, google_id, wallet_address, created_at`

const (
	insertUserSQL = `INSERT INTO users (email, name, picture, google_id) VALUES ($1, $2, $3, $4) RETURNING ` + userColumns
	updateByEmailSQL = `UPDATE users SET name = $2, picture = $3, google_id = COALESCE($4, google_id)
WHERE email = $1 RETURNING ` + userColumns
	updateByGoogleIDSQL = `UPDATE users SET name = $2, picture = $3 WHERE google_id = $1 RETURNING ` + userColumns
	getByEmailSQL         = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	getByGoogleIDSQL      = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	getByIDSQL            = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getByWalletAddressSQL = `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	setWalletSQL          = `UPDATE users SET wallet_address = $2 WHERE id = $1 AND wallet_address IS NULL`
)

// UserStore implements ports.UserStore on PostgreSQL. Every write is a single
// statement, so the uniqueness constraints are the only concurrency control.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Insert(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, insertUserSQL, claims.Email, claims.Name, claims.Picture, subject(claims))
	return scanWrite(row)
}

func (s *UserStore) UpdateProfileByEmail(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	row := s.pool.QueryRow(ctx, updateByEmailSQL, claims.Email, claims.Name, claims.Picture, subject(claims))
	return scanWrite(row)
}

func (s *UserStore) UpdateProfileByGoogleID(ctx context.Context, claims domain.IdentityClaims) (*domain.User, error) {
	if !claims.HasSubject() {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, updateByGoogleIDSQL, *claims.ProviderSubjectID, claims.Name, claims.Picture)
	return scanWrite(row)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanRead(s.pool.QueryRow(ctx, getByEmailSQL, email))
}

func (s *UserStore) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return scanRead(s.pool.QueryRow(ctx, getByGoogleIDSQL, googleID))
}

func (s *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return scanRead(s.pool.QueryRow(ctx, getByIDSQL, int64(id)))
}

func (s *UserStore) GetByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	return scanRead(s.pool.QueryRow(ctx, getByWalletAddressSQL, address))
}

func (s *UserStore) SetWalletAddressIfAbsent(ctx context.Context, id domain.UserID, address string) (bool, error) {
	tag, err := s.pool.Exec(ctx, setWalletSQL, int64(id), address)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domerrors.ErrDuplicate
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanRead(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func scanWrite(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, domerrors.ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		id int64
		u  domain.User
	)
	if err := row.Scan(&id, &u.Email, &u.Name, &u.Picture, &u.GoogleID, &u.WalletAddress, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = domain.UserID(id)
	return &u, nil
}

func subject(claims domain.IdentityClaims) *string {
	if !claims.HasSubject() {
		return nil
	}
	return claims.ProviderSubjectID
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Ensure UserStore implements ports.UserStore.
var _ ports.UserStore = (*UserStore)(nil)
