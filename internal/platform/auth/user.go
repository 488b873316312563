package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrack/caretrack/internal/platform/db"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// User is a practice staff account. PasswordHash is empty for accounts
// created through an external identity provider.
type User struct {
	ID           uuid.UUID `db:"id" json:"id" bson:"_id"`
	Email        string    `db:"email" json:"email" bson:"email"`
	Name         string    `db:"name" json:"name" bson:"name"`
	PasswordHash string    `db:"password_hash" json:"-" bson:"password_hash"`
	Roles        []string  `db:"roles" json:"roles" bson:"roles"`
	Subject      string    `db:"subject" json:"-" bson:"subject,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (u *User) GetID() uuid.UUID   { return u.ID }
func (u *User) SetID(id uuid.UUID) { u.ID = id }
func (u *User) Stamp(c, m time.Time) {
	u.CreatedAt, u.UpdatedAt = c, m
}

func (u *User) Field(name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "name":
		return u.Name, true
	case "roles":
		return u.Roles, true
	case "subject":
		return u.Subject, true
	case "created_at":
		return u.CreatedAt, true
	case "updated_at":
		return u.UpdatedAt, true
	}
	return nil, false
}

func (u *User) Clone() *User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID.String(), Email: u.Email, Name: u.Name, Roles: append([]string(nil), u.Roles...)}
}

type UserRepository = store.Repository[*User]

func NewUserMemoryRepo() *store.Memory[*User] {
	return store.NewMemory((*User).Clone)
}

// normalizeEmail lower-cases and trims so lookups are case-insensitive.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func findUser(ctx context.Context, repo UserRepository, field, value string) (*User, error) {
	items, _, err := repo.List(ctx, store.Query{Where: []store.Condition{store.Eq(field, value)}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return items[0], nil
}

var userColumns = store.Columns{
	"id":         "id",
	"email":      "email",
	"name":       "name",
	"roles":      "array_to_string(roles, ', ')",
	"subject":    "subject",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const userCols = `id, email, name, password_hash, roles, subject, created_at, updated_at`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Roles, &u.Subject, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, roles, subject)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Roles, u.Subject).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE users SET email=$2, name=$3, password_hash=$4, roles=$5, subject=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Roles, u.Subject).Scan(&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepoPG) List(ctx context.Context, q store.Query) ([]*User, int, error) {
	sq := store.NewSQLQuery("users", userCols, userColumns)
	if err := sq.Apply(q, "email ASC"); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, sq.CountSQL(), sq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, sq.DataSQL(), sq.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}
