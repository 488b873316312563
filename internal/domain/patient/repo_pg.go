package patient

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

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, first_name, last_name, dob, gender, phone, email, address,
	insurance_provider, insurance_number, medical_conditions, allergies, last_visit,
	status, tags, created_at, updated_at`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DOB, &p.Gender, &p.Phone, &p.Email, &p.Address,
		&p.InsuranceProvider, &p.InsuranceNumber, &p.MedicalConditions, &p.Allergies, &p.LastVisit,
		&p.Status, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, first_name, last_name, dob, gender, phone, email, address,
			insurance_provider, insurance_number, medical_conditions, allergies, last_visit, status, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DOB, p.Gender, p.Phone, p.Email, p.Address,
		p.InsuranceProvider, p.InsuranceNumber, p.MedicalConditions, p.Allergies, p.LastVisit,
		p.Status, p.Tags).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET first_name=$2, last_name=$3, dob=$4, gender=$5, phone=$6, email=$7,
			address=$8, insurance_provider=$9, insurance_number=$10, medical_conditions=$11,
			allergies=$12, last_visit=$13, status=$14, tags=$15, updated_at=NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.LastName, p.DOB, p.Gender, p.Phone, p.Email,
		p.Address, p.InsuranceProvider, p.InsuranceNumber, p.MedicalConditions,
		p.Allergies, p.LastVisit, p.Status, p.Tags).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *patientRepoPG) List(ctx context.Context, q store.Query) ([]*Patient, int, error) {
	sq := store.NewSQLQuery("patient", patientCols, Columns)
	if err := sq.Apply(q, "last_name ASC, first_name ASC"); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, sq.CountSQL(), sq.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, sq.DataSQL(), sq.DataArgs()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
