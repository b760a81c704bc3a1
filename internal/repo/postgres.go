package repo

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/tazhibayda/auth-gateway/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const userColumns = `id, provider, provider_id, username, email, name, picture, password_hash, subscription, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: db open: %v", domain.ErrStoreUnavailable, err)
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindLocalUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND password_hash IS NOT NULL`, email)
}

func (s *PostgresStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_id = $2`, provider, providerID)
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	sub, err := marshalSubscription(u.Subscription)
	if err != nil {
		return nil, err
	}
	out := *u
	out.ID = uuid.NewString()

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.db.ExecContext(ctx, query,
		out.ID, nullable(out.Provider), nullable(out.ProviderID), nullable(out.Username),
		out.Email, nullable(out.Name), nullable(out.Picture), nullable(out.PasswordHash),
		sub, out.CreatedAt, nullable(out.UpdatedAt))
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %v", domain.ErrStoreUnavailable, err)
	}
	return &out, nil
}

func (s *PostgresStore) TouchUser(ctx context.Context, id, updatedAt string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.queryOne(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1 RETURNING `+userColumns, id, updatedAt)
}

func (s *PostgresStore) SetSubscription(ctx context.Context, id string, sub *domain.Subscription) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	raw, err := marshalSubscription(sub)
	if err != nil {
		return nil, err
	}
	return s.queryOne(ctx, `UPDATE users SET subscription = $2 WHERE id = $1 RETURNING `+userColumns, id, raw)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	var sub []byte
	var provider, providerID, username, name, picture, hash, upd sql.NullString
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &provider, &providerID, &username, &u.Email, &name, &picture, &hash,
		&sub, &u.CreatedAt, &upd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %v", domain.ErrStoreUnavailable, err)
	}
	u.Provider, u.ProviderID, u.Username = provider.String, providerID.String, username.String
	u.Name, u.Picture, u.PasswordHash, u.UpdatedAt = name.String, picture.String, hash.String, upd.String
	if len(sub) > 0 {
		u.Subscription = &domain.Subscription{}
		if err := json.Unmarshal(sub, u.Subscription); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
	}
	return &u, nil
}

func marshalSubscription(sub *domain.Subscription) (any, error) {
	if sub == nil {
		return nil, nil
	}
	b, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode subscription: %w", err)
	}
	return b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
