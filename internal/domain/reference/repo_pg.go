package reference

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caretrack/caretrack/internal/platform/db"
	"github.com/caretrack/caretrack/internal/platform/store"
)

// =========== Provider Repository ===========

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) store.Repository[*Provider] {
	return &providerRepoPG{pool: pool}
}

func (r *providerRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const providerCols = `id, name, specialty, color, available, tags, created_at, updated_at`

func (r *providerRepoPG) scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.Specialty, &p.Color, &p.Available, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return &p, err
}

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO provider (id, name, specialty, color, available, tags)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Specialty, p.Color, p.Available, p.Tags).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *providerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return r.scanProvider(r.conn(ctx).QueryRow(ctx, `SELECT `+providerCols+` FROM provider WHERE id = $1`, id))
}

func (r *providerRepoPG) Update(ctx context.Context, p *Provider) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE provider SET name=$2, specialty=$3, color=$4, available=$5, tags=$6, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Specialty, p.Color, p.Available, p.Tags).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *providerRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM provider WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *providerRepoPG) List(ctx context.Context, q store.Query) ([]*Provider, int, error) {
	sq := store.NewSQLQuery("provider", providerCols, ProviderColumns)
	if err := sq.Apply(q, "name ASC"); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, sq.CountSQL(), sq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count providers: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, sq.DataSQL(), sq.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()
	var items []*Provider
	for rows.Next() {
		p, err := r.scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Label Repository ===========

// labelRepoPG serves both label tables; table is one of TypeTable or
// StatusTable and never comes from user input.
type labelRepoPG struct {
	pool  *pgxpool.Pool
	table string
}

func NewLabelRepoPG(pool *pgxpool.Pool, table string) store.Repository[*Label] {
	return &labelRepoPG{pool: pool, table: table}
}

func (r *labelRepoPG) conn(ctx context.Context) db.Querier { return db.Conn(ctx, r.pool) }

const labelCols = `id, name, color, tags, created_at, updated_at`

func (r *labelRepoPG) scanLabel(row pgx.Row) (*Label, error) {
	var l Label
	err := row.Scan(&l.ID, &l.Name, &l.Color, &l.Tags, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return &l, err
}

func (r *labelRepoPG) Create(ctx context.Context, l *Label) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx,
		`INSERT INTO `+r.table+` (id, name, color, tags) VALUES ($1,$2,$3,$4) RETURNING created_at, updated_at`,
		l.ID, l.Name, l.Color, l.Tags).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *labelRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Label, error) {
	return r.scanLabel(r.conn(ctx).QueryRow(ctx, `SELECT `+labelCols+` FROM `+r.table+` WHERE id = $1`, id))
}

func (r *labelRepoPG) Update(ctx context.Context, l *Label) error {
	err := r.conn(ctx).QueryRow(ctx,
		`UPDATE `+r.table+` SET name=$2, color=$3, tags=$4, updated_at=NOW() WHERE id = $1 RETURNING created_at, updated_at`,
		l.ID, l.Name, l.Color, l.Tags).Scan(&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *labelRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *labelRepoPG) List(ctx context.Context, q store.Query) ([]*Label, int, error) {
	sq := store.NewSQLQuery(r.table, labelCols, LabelColumns)
	if err := sq.Apply(q, "name ASC"); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, sq.CountSQL(), sq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	rows, err := r.conn(ctx).Query(ctx, sq.DataSQL(), sq.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()
	var items []*Label
	for rows.Next() {
		l, err := r.scanLabel(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}
