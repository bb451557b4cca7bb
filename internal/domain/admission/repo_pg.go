package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admissionCols = `id, patient_id, ward_id, bed_id, admission_type, status,
	admission_date, discharge_date, reason, notes, discharge_notes,
	procedure_start_time, expected_discharge_time, home_support_available,
	transferred_from, created_at, updated_at`

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM admission WHERE id = $1`, id))
	if err != nil {
		var nfe *apperror.NotFoundError
		if errors.As(err, &nfe) {
			return nil, apperror.NewNotFound("admission", id.String())
		}
		return nil, err
	}
	return a, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Admission, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	n := 0
	if f.PatientID != "" {
		n++
		where += fmt.Sprintf(" AND patient_id = $%d", n)
		args = append(args, f.PatientID)
	}
	if f.WardID != uuid.Nil {
		n++
		where += fmt.Sprintf(" AND ward_id = $%d", n)
		args = append(args, f.WardID)
	}
	if f.BedID != uuid.Nil {
		n++
		where += fmt.Sprintf(" AND bed_id = $%d", n)
		args = append(args, f.BedID)
	}
	if f.Status != "" {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, f.Status)
	}
	if f.AdmissionType != "" {
		n++
		where += fmt.Sprintf(" AND admission_type = $%d", n)
		args = append(args, f.AdmissionType)
	}
	if f.From != nil {
		n++
		where += fmt.Sprintf(" AND admission_date >= $%d", n)
		args = append(args, *f.From)
	}
	if f.To != nil {
		n++
		where += fmt.Sprintf(" AND admission_date < $%d", n)
		args = append(args, *f.To)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM admission %s ORDER BY admission_date DESC LIMIT $%d OFFSET $%d`,
		admissionCols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	admissions, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return admissions, total, nil
}

func (r *repoPG) ActiveByPatient(ctx context.Context, patientID string) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx, `
		SELECT `+admissionCols+` FROM admission
		WHERE patient_id = $1 AND status = $2`, patientID, StatusAdmitted))
	if err != nil {
		var nfe *apperror.NotFoundError
		if errors.As(err, &nfe) {
			return nil, apperror.NewNotFound("admission", patientID)
		}
		return nil, err
	}
	return a, nil
}

func (r *repoPG) History(ctx context.Context, patientID string) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+admissionCols+` FROM admission
		WHERE patient_id = $1
		ORDER BY admission_date DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) Stats(ctx context.Context, day time.Time) (*Stats, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	q := r.conn(ctx)
	s := &Stats{ByType: map[string]int{}, ByWard: map[string]int{}}

	err := q.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE admission_date >= $2 AND admission_date < $3),
			COUNT(*) FILTER (WHERE discharge_date >= $2 AND discharge_date < $3)
		FROM admission`,
		StatusAdmitted, dayStart, dayEnd,
	).Scan(&s.CurrentlyAdmitted, &s.AdmittedToday, &s.DischargedToday)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT admission_type, COUNT(*) FROM admission
		WHERE status = $1 GROUP BY admission_type`, StatusAdmitted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, err
		}
		s.ByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	wardRows, err := q.Query(ctx, `
		SELECT ward_id, COUNT(*) FROM admission
		WHERE status = $1 GROUP BY ward_id`, StatusAdmitted)
	if err != nil {
		return nil, err
	}
	defer wardRows.Close()
	for wardRows.Next() {
		var wardID uuid.UUID
		var count int
		if err := wardRows.Scan(&wardID, &count); err != nil {
			return nil, err
		}
		s.ByWard[wardID.String()] = count
	}
	return s, wardRows.Err()
}

func collect(rows pgx.Rows) ([]*Admission, error) {
	var admissions []*Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		admissions = append(admissions, a)
	}
	return admissions, rows.Err()
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(
		&a.ID, &a.PatientID, &a.WardID, &a.BedID, &a.AdmissionType, &a.Status,
		&a.AdmissionDate, &a.DischargeDate, &a.Reason, &a.Notes, &a.DischargeNotes,
		&a.ProcedureStartTime, &a.ExpectedDischargeTime, &a.HomeSupportAvailable,
		&a.TransferredFrom, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("admission", "")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
