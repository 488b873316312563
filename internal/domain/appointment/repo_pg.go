package appointment

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

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &appointmentRepoPG{pool: pool} }

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, name, patient_id, provider_id, type_id, status_id, start_time, end_time,
	duration, reason, notes, is_recurring, recurring_pattern, wait_time, created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.Name, &a.PatientID, &a.ProviderID, &a.TypeID, &a.StatusID, &a.Start, &a.End,
		&a.Duration, &a.Reason, &a.Notes, &a.IsRecurring, &a.RecurringPattern, &a.WaitTime, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, name, patient_id, provider_id, type_id, status_id, start_time, end_time,
			duration, reason, notes, is_recurring, recurring_pattern, wait_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		a.ID, a.Name, a.PatientID, a.ProviderID, a.TypeID, a.StatusID, a.Start, a.End,
		a.Duration, a.Reason, a.Notes, a.IsRecurring, a.RecurringPattern, a.WaitTime).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET name=$2, patient_id=$3, provider_id=$4, type_id=$5, status_id=$6,
			start_time=$7, end_time=$8, duration=$9, reason=$10, notes=$11, is_recurring=$12,
			recurring_pattern=$13, wait_time=$14, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		a.ID, a.Name, a.PatientID, a.ProviderID, a.TypeID, a.StatusID,
		a.Start, a.End, a.Duration, a.Reason, a.Notes, a.IsRecurring,
		a.RecurringPattern, a.WaitTime).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *appointmentRepoPG) List(ctx context.Context, q store.Query) ([]*Appointment, int, error) {
	sq := store.NewSQLQuery("appointment", apptCols, Columns)
	if err := sq.Apply(q, "start_time ASC"); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, sq.CountSQL(), sq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, sq.DataSQL(), sq.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
