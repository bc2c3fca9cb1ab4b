package repositories

import (
	"context"
	"database/sql"
	"time"

	"clinicdesk/internal/models"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	Update(ctx context.Context, a *models.Appointment) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Appointment, error)
	List(ctx context.Context) ([]*models.Appointment, error)
}

type appointmentRepository struct {
	db  *sql.DB
	loc *time.Location
}

// NewAppointmentRepository stores appointment_at as wall clock in loc.
func NewAppointmentRepository(db *sql.DB, loc *time.Location) AppointmentRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &appointmentRepository{db: db, loc: loc}
}

func (r *appointmentRepository) wallClock(t time.Time) string {
	return t.In(r.loc).Format(models.WallClockLayout)
}

func (r *appointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	const q = `
		INSERT INTO appointments (
			client_name, client_id_number, appointment_at,
			reason, cost, attending_doctor, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, appointment_number, created_at
	`
	var number sql.NullInt64
	err := r.db.QueryRowContext(ctx, q,
		a.ClientName,
		a.ClientIDNumber,
		r.wallClock(a.AppointmentAt),
		a.Reason,
		nullInt64(a.Cost),
		nullString(a.AttendingDoctor),
		nullString(a.Notes),
	).Scan(&a.ID, &number, &a.CreatedAt)
	if err != nil {
		return wrapErr("create appointment", err)
	}
	if number.Valid {
		n := number.Int64
		a.AppointmentNumber = &n
	}
	return nil
}

// Update rewrites every editable column of the row keyed by a.ID.
// appointment_number is owned by the store and left alone.
func (r *appointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	const q = `
		UPDATE appointments
		SET client_name=$1, client_id_number=$2, appointment_at=$3,
			reason=$4, cost=$5, attending_doctor=$6, notes=$7
		WHERE id=$8
	`
	res, err := r.db.ExecContext(ctx, q,
		a.ClientName,
		a.ClientIDNumber,
		r.wallClock(a.AppointmentAt),
		a.Reason,
		nullInt64(a.Cost),
		nullString(a.AttendingDoctor),
		nullString(a.Notes),
		a.ID,
	)
	if err != nil {
		return wrapErr("update appointment", err)
	}
	return expectOneRow("update appointment", res)
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return wrapErr("delete appointment", err)
	}
	return expectOneRow("delete appointment", res)
}

const appointmentColumns = `
	id, appointment_number, client_name, client_id_number, appointment_at,
	reason, cost, attending_doctor, notes, created_at
`

func (r *appointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	a, err := r.scan(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, wrapErr("get appointment", err)
	}
	return a, nil
}

func (r *appointmentRepository) List(ctx context.Context) ([]*models.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY appointment_at ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapErr("list appointments", err)
	}
	defer rows.Close()

	res := []*models.Appointment{}
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, wrapErr("list appointments", err)
		}
		res = append(res, a)
	}
	return res, wrapErr("list appointments", rows.Err())
}

func (r *appointmentRepository) scan(row rowScanner) (*models.Appointment, error) {
	var (
		a             models.Appointment
		number, cost  sql.NullInt64
		doctor, notes sql.NullString
	)
	if err := row.Scan(
		&a.ID, &number, &a.ClientName, &a.ClientIDNumber, &a.AppointmentAt,
		&a.Reason, &cost, &doctor, &notes, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	a.AppointmentAt = models.Anchor(a.AppointmentAt, r.loc)
	if number.Valid {
		n := number.Int64
		a.AppointmentNumber = &n
	}
	if cost.Valid {
		c := cost.Int64
		a.Cost = &c
	}
	a.AttendingDoctor = doctor.String
	a.Notes = notes.String
	return &a, nil
}
