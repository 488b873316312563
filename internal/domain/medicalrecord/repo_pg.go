package medicalrecord

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

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &recordRepoPG{pool: pool} }

func (r *recordRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const recordCols = `id, patient_id, type, title, description, date, provider, notes, results,
	dosage, frequency, duration, tags, created_at, updated_at`

func (r *recordRepoPG) scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.PatientID, &m.Type, &m.Title, &m.Description, &m.Date, &m.Provider, &m.Notes, &m.Results,
		&m.Dosage, &m.Frequency, &m.Duration, &m.Tags, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return &m, err
}

func (r *recordRepoPG) Create(ctx context.Context, m *MedicalRecord) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_record (id, patient_id, type, title, description, date, provider, notes, results,
			dosage, frequency, duration, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		m.ID, m.PatientID, m.Type, m.Title, m.Description, m.Date, m.Provider, m.Notes, m.Results,
		m.Dosage, m.Frequency, m.Duration, m.Tags).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return r.scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM medical_record WHERE id = $1`, id))
}

func (r *recordRepoPG) Update(ctx context.Context, m *MedicalRecord) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_record SET patient_id=$2, type=$3, title=$4, description=$5, date=$6, provider=$7,
			notes=$8, results=$9, dosage=$10, frequency=$11, duration=$12, tags=$13, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		m.ID, m.PatientID, m.Type, m.Title, m.Description, m.Date, m.Provider,
		m.Notes, m.Results, m.Dosage, m.Frequency, m.Duration, m.Tags).Scan(&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *recordRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_record WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *recordRepoPG) List(ctx context.Context, q store.Query) ([]*MedicalRecord, int, error) {
	sq := store.NewSQLQuery("medical_record", recordCols, Columns)
	if err := sq.Apply(q, "date DESC"); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, sq.CountSQL(), sq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical records: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, sq.DataSQL(), sq.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical records: %w", err)
	}
	defer rows.Close()
	var items []*MedicalRecord
	for rows.Next() {
		m, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
