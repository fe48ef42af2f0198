package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyLinked = errors.New("user already linked")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type LinkStatus string

const (
	LinkStatusPending LinkStatus = "pending"
	LinkStatusActive  LinkStatus = "active"
)

// Link joins two users into a household. It is mutual: either side resolves
// the other as partner once the link is active.
type Link struct {
	ID        uuid.UUID  `json:"id"`
	UserA     string     `json:"user_a"`
	UserB     string     `json:"user_b"`
	Status    LinkStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type Repository interface {
	createUser(ctx context.Context, user *User) error
	getUserByID(ctx context.Context, id string) (*User, error)
	getUserByEmail(ctx context.Context, email string) (*User, error)
	listUserIDs(ctx context.Context) ([]string, error)
	createLink(ctx context.Context, link *Link) error
	getLinkByUser(ctx context.Context, userID string) (*Link, error)
	updateLinkStatus(ctx context.Context, linkID uuid.UUID, status LinkStatus) error
	deleteLink(ctx context.Context, linkID uuid.UUID) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{db: db}
}

func (r *userRepository) createUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not create user: %v", err)
	}
	return nil
}

func (r *userRepository) getUserByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	var user User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %v", err)
	}
	return &user, nil
}

func (r *userRepository) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	var user User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %v", err)
	}
	return &user, nil
}

func (r *userRepository) listUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// createLink inserts the link and one membership row per side in a single
// transaction. The UNIQUE constraint on user_link_members.user_id rejects a
// user who already sits in another link, even when two requests race.
func (r *userRepository) createLink(ctx context.Context, link *Link) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_links (id, user_a, user_b, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, link.ID, link.UserA, link.UserB, link.Status).Scan(&link.CreatedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_link_members (link_id, user_id)
		VALUES ($1, $2), ($1, $3)
	`, link.ID, link.UserA, link.UserB)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyLinked
		}
		return err
	}
	return tx.Commit()
}

func (r *userRepository) getLinkByUser(ctx context.Context, userID string) (*Link, error) {
	query := `
		SELECT id, user_a, user_b, status, created_at
		FROM user_links
		WHERE user_a = $1 OR user_b = $1
	`
	var link Link
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&link.ID, &link.UserA, &link.UserB, &link.Status, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *userRepository) updateLinkStatus(ctx context.Context, linkID uuid.UUID, status LinkStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_links SET status = $2 WHERE id = $1`, linkID, status)
	return err
}

func (r *userRepository) deleteLink(ctx context.Context, linkID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_links WHERE id = $1`, linkID)
	return err
}
