package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contacts_auth/internal/config"
	"contacts_auth/internal/models"
	"contacts_auth/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) SaveUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	var id string

	err := r.pool.QueryRow(ctx, query, user.ID, user.Email, user.Name, string(user.PassHash)).Scan(&id)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return "", storage.ErrUserExists
		}

		return "", fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `
		SELECT id, email, name, password_hash
		FROM users
		WHERE email = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) UserByID(ctx context.Context, id string) (models.User, error) {
	query := `
		SELECT id, email, name, password_hash
		FROM users
		WHERE id = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) UpdatePassword(ctx context.Context, userID string, passHash []byte) error {
	const op = "storage.postgres.UpdatePassword"

	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, string(passHash), userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// ReplaceSession enforces "one session per user" in a single statement: the
// unique index on user_id turns the insert into an update of the old row, so
// concurrent logins cannot leave two valid sessions behind.
func (r *PostgresRepo) ReplaceSession(ctx context.Context, s models.Session) error {
	const op = "storage.postgres.ReplaceSession"

	const query = `
		INSERT INTO sessions (id, user_id, access_token, refresh_token,
			access_token_valid_until, refresh_token_valid_until)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_token_valid_until = EXCLUDED.access_token_valid_until,
			refresh_token_valid_until = EXCLUDED.refresh_token_valid_until
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.AccessToken,
		s.RefreshToken,
		s.AccessTokenValidUntil,
		s.RefreshTokenValidUntil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) SessionByID(ctx context.Context, id string) (models.Session, error) {
	const query = `
		SELECT id, user_id, access_token, refresh_token,
			access_token_valid_until, refresh_token_valid_until
		FROM sessions
		WHERE id = $1;
	`

	return r.scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) SessionByAccessToken(ctx context.Context, accessToken string) (models.Session, error) {
	const query = `
		SELECT id, user_id, access_token, refresh_token,
			access_token_valid_until, refresh_token_valid_until
		FROM sessions
		WHERE access_token = $1;
	`

	return r.scanSession(r.pool.QueryRow(ctx, query, accessToken))
}

func (r *PostgresRepo) DeleteSessionByID(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteSessionByID"

	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) DeleteSessionByUserID(ctx context.Context, userID string) error {
	const op = "storage.postgres.DeleteSessionByUserID"

	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PassHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, err
}

func (r *PostgresRepo) scanSession(row pgx.Row) (models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.AccessToken,
		&s.RefreshToken,
		&s.AccessTokenValidUntil,
		&s.RefreshTokenValidUntil,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, storage.ErrSessionNotFound
	}

	return s, err
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
