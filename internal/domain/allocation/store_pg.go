package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/platform/apperror"
	"github.com/hms/hms/internal/platform/db"
)

// Partial unique indexes backing the one-active-admission invariants. The
// row locks taken below make these unreachable in practice; they are the
// storage-level backstop should a future code path skip the locking.
const (
	idxActivePatient = "ux_admission_active_patient"
	idxActiveBed     = "ux_admission_active_bed"
)

type storePG struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (s *storePG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *storePG) Admit(ctx context.Context, a *admission.Admission) error {
	return db.RunInTx(ctx, s.pool, func(txCtx context.Context) error {
		return s.admitLocked(txCtx, a)
	})
}

func (s *storePG) admitLocked(ctx context.Context, a *admission.Admission) error {
	q := s.conn(ctx)

	// The ward row lock is the serialization unit for the capacity check:
	// concurrent admissions to the same ward queue here, different wards
	// proceed independently.
	var capacity int
	var wardActive bool
	err := q.QueryRow(ctx,
		`SELECT capacity, is_active FROM ward WHERE id = $1 FOR UPDATE`, a.WardID,
	).Scan(&capacity, &wardActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewReference("ward", a.WardID.String())
	}
	if err != nil {
		return err
	}
	if !wardActive {
		return apperror.NewConflict(apperror.ConflictBedUnavailable, "ward is not active").
			WithDetail("wardId", a.WardID.String())
	}

	var existingID uuid.UUID
	err = q.QueryRow(ctx,
		`SELECT id FROM admission WHERE patient_id = $1 AND status = $2`,
		a.PatientID, admission.StatusAdmitted,
	).Scan(&existingID)
	if err == nil {
		return apperror.NewConflict(apperror.ConflictAlreadyAdmitted, "patient already has an active admission").
			WithDetail("patientId", a.PatientID).
			WithDetail("admissionId", existingID.String())
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	bedID, err := s.claimBed(ctx, a.WardID, a.BedID)
	if err != nil {
		return err
	}
	a.BedID = bedID

	var occupied int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM bed WHERE ward_id = $1 AND is_occupied`, a.WardID,
	).Scan(&occupied); err != nil {
		return err
	}
	if occupied+1 > capacity {
		return apperror.NewConflict(apperror.ConflictBedUnavailable, "ward is at capacity").
			WithDetail("wardId", a.WardID.String()).
			WithDetail("capacity", capacity).
			WithDetail("occupied", occupied)
	}

	if _, err := q.Exec(ctx,
		`UPDATE bed SET is_occupied = TRUE, updated_at = NOW() WHERE id = $1`, bedID,
	); err != nil {
		return err
	}

	a.ID = uuid.New()
	a.Status = admission.StatusAdmitted
	err = q.QueryRow(ctx, `
		INSERT INTO admission (
			id, patient_id, ward_id, bed_id, admission_type, status,
			admission_date, reason, notes,
			procedure_start_time, expected_discharge_time, home_support_available,
			transferred_from
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.WardID, a.BedID, a.AdmissionType, a.Status,
		a.AdmissionDate, a.Reason, a.Notes,
		a.ProcedureStartTime, a.ExpectedDischargeTime, a.HomeSupportAvailable,
		a.TransferredFrom,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapUniqueViolation(err, a)
}

// claimBed locks and returns the target bed. With a zero bedID it picks the
// first free bed in the ward, skipping rows locked by concurrent claims.
func (s *storePG) claimBed(ctx context.Context, wardID, bedID uuid.UUID) (uuid.UUID, error) {
	q := s.conn(ctx)

	if bedID == uuid.Nil {
		var id uuid.UUID
		err := q.QueryRow(ctx, `
			SELECT id FROM bed
			WHERE ward_id = $1 AND is_active AND NOT is_occupied
			ORDER BY bed_number
			LIMIT 1
			FOR UPDATE SKIP LOCKED`, wardID,
		).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperror.NewConflict(apperror.ConflictBedUnavailable, "no available beds in ward").
				WithDetail("wardId", wardID.String())
		}
		return id, err
	}

	var bedWardID uuid.UUID
	var active, occupied bool
	err := q.QueryRow(ctx,
		`SELECT ward_id, is_active, is_occupied FROM bed WHERE id = $1 FOR UPDATE`, bedID,
	).Scan(&bedWardID, &active, &occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, apperror.NewReference("bed", bedID.String())
	}
	if err != nil {
		return uuid.Nil, err
	}
	if bedWardID != wardID || !active || occupied {
		ce := apperror.NewConflict(apperror.ConflictBedUnavailable, "bed is not available").
			WithDetail("bedId", bedID.String())
		if bedWardID != wardID {
			ce = ce.WithDetail("reason", "bed belongs to a different ward")
		} else if !active {
			ce = ce.WithDetail("reason", "bed is inactive")
		} else {
			ce = ce.WithDetail("reason", "bed is occupied")
		}
		return uuid.Nil, ce
	}
	return bedID, nil
}

func (s *storePG) Discharge(ctx context.Context, admissionID uuid.UUID, notes *string, now time.Time) (*admission.Admission, error) {
	var out *admission.Admission
	err := db.RunInTx(ctx, s.pool, func(txCtx context.Context) error {
		a, err := s.dischargeLocked(txCtx, admissionID, notes, now)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func (s *storePG) dischargeLocked(ctx context.Context, admissionID uuid.UUID, notes *string, now time.Time) (*admission.Admission, error) {
	q := s.conn(ctx)

	a, err := lockAdmission(ctx, q, admissionID)
	if err != nil {
		return nil, err
	}
	if a.Status != admission.StatusAdmitted {
		return nil, apperror.NewConflict(apperror.ConflictAlreadyDischarged, "admission is already closed").
			WithDetail("admissionId", admissionID.String()).
			WithDetail("status", a.Status)
	}

	err = q.QueryRow(ctx, `
		UPDATE admission
		SET status = $2, discharge_date = $3, discharge_notes = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		admissionID, admission.StatusDischarged, now, notes,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = admission.StatusDischarged
	a.DischargeDate = &now
	a.DischargeNotes = notes

	if _, err := q.Exec(ctx,
		`UPDATE bed SET is_occupied = FALSE, updated_at = NOW() WHERE id = $1`, a.BedID,
	); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *storePG) Transfer(ctx context.Context, admissionID, newWardID, newBedID uuid.UUID, now time.Time) (*admission.Admission, *admission.Admission, error) {
	var closed, opened *admission.Admission
	err := db.RunInTx(ctx, s.pool, func(txCtx context.Context) error {
		var err error
		closed, opened, err = s.transferLocked(txCtx, admissionID, newWardID, newBedID, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return closed, opened, nil
}

func (s *storePG) transferLocked(ctx context.Context, admissionID, newWardID, newBedID uuid.UUID, now time.Time) (*admission.Admission, *admission.Admission, error) {
	q := s.conn(ctx)

	old, err := lockAdmission(ctx, q, admissionID)
	if err != nil {
		return nil, nil, err
	}
	if old.Status != admission.StatusAdmitted {
		return nil, nil, apperror.NewConflict(apperror.ConflictAlreadyDischarged, "admission is already closed").
			WithDetail("admissionId", admissionID.String()).
			WithDetail("status", old.Status)
	}
	if newBedID == old.BedID {
		return nil, nil, apperror.NewConflict(apperror.ConflictBedUnavailable, "patient already occupies this bed").
			WithDetail("bedId", newBedID.String())
	}

	var capacity int
	var wardActive bool
	err = q.QueryRow(ctx,
		`SELECT capacity, is_active FROM ward WHERE id = $1 FOR UPDATE`, newWardID,
	).Scan(&capacity, &wardActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperror.NewReference("ward", newWardID.String())
	}
	if err != nil {
		return nil, nil, err
	}
	if !wardActive {
		return nil, nil, apperror.NewConflict(apperror.ConflictBedUnavailable, "ward is not active").
			WithDetail("wardId", newWardID.String())
	}

	// Lock the two bed rows in uuid order so two opposing transfers cannot
	// deadlock on each other.
	if newBedID != uuid.Nil && newBedID.String() < old.BedID.String() {
		if _, err := s.claimBed(ctx, newWardID, newBedID); err != nil {
			return nil, nil, err
		}
		if err := lockBed(ctx, q, old.BedID); err != nil {
			return nil, nil, err
		}
	} else {
		if err := lockBed(ctx, q, old.BedID); err != nil {
			return nil, nil, err
		}
		if newBedID, err = s.claimBed(ctx, newWardID, newBedID); err != nil {
			return nil, nil, err
		}
	}

	// The old bed frees up in the same unit, so it only counts against the
	// target ward's capacity when the transfer stays within one ward.
	var occupied int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM bed WHERE ward_id = $1 AND is_occupied AND id <> $2`,
		newWardID, old.BedID,
	).Scan(&occupied); err != nil {
		return nil, nil, err
	}
	if occupied+1 > capacity {
		return nil, nil, apperror.NewConflict(apperror.ConflictBedUnavailable, "ward is at capacity").
			WithDetail("wardId", newWardID.String()).
			WithDetail("capacity", capacity).
			WithDetail("occupied", occupied)
	}

	if _, err := q.Exec(ctx,
		`UPDATE bed SET is_occupied = FALSE, updated_at = NOW() WHERE id = $1`, old.BedID,
	); err != nil {
		return nil, nil, err
	}
	if _, err := q.Exec(ctx,
		`UPDATE bed SET is_occupied = TRUE, updated_at = NOW() WHERE id = $1`, newBedID,
	); err != nil {
		return nil, nil, err
	}

	err = q.QueryRow(ctx, `
		UPDATE admission
		SET status = $2, discharge_date = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		old.ID, admission.StatusTransferred, now,
	).Scan(&old.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	old.Status = admission.StatusTransferred
	old.DischargeDate = &now

	next := &admission.Admission{
		ID:              uuid.New(),
		PatientID:       old.PatientID,
		WardID:          newWardID,
		BedID:           newBedID,
		AdmissionType:   admission.TypeTransfer,
		Status:          admission.StatusAdmitted,
		AdmissionDate:   now,
		Reason:          old.Reason,
		Notes:           old.Notes,
		TransferredFrom: &old.ID,
	}
	err = q.QueryRow(ctx, `
		INSERT INTO admission (
			id, patient_id, ward_id, bed_id, admission_type, status,
			admission_date, reason, notes, transferred_from
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		next.ID, next.PatientID, next.WardID, next.BedID, next.AdmissionType, next.Status,
		next.AdmissionDate, next.Reason, next.Notes, next.TransferredFrom,
	).Scan(&next.CreatedAt, &next.UpdatedAt)
	if err := mapUniqueViolation(err, next); err != nil {
		return nil, nil, err
	}
	return old, next, nil
}

func lockAdmission(ctx context.Context, q querier, id uuid.UUID) (*admission.Admission, error) {
	var a admission.Admission
	err := q.QueryRow(ctx, `
		SELECT id, patient_id, ward_id, bed_id, admission_type, status,
			admission_date, discharge_date, reason, notes, discharge_notes,
			procedure_start_time, expected_discharge_time, home_support_available,
			transferred_from, created_at, updated_at
		FROM admission WHERE id = $1 FOR UPDATE`, id,
	).Scan(
		&a.ID, &a.PatientID, &a.WardID, &a.BedID, &a.AdmissionType, &a.Status,
		&a.AdmissionDate, &a.DischargeDate, &a.Reason, &a.Notes, &a.DischargeNotes,
		&a.ProcedureStartTime, &a.ExpectedDischargeTime, &a.HomeSupportAvailable,
		&a.TransferredFrom, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("admission", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func lockBed(ctx context.Context, q querier, id uuid.UUID) error {
	var occupied bool
	err := q.QueryRow(ctx, `SELECT is_occupied FROM bed WHERE id = $1 FOR UPDATE`, id).Scan(&occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewReference("bed", id.String())
	}
	return err
}

func mapUniqueViolation(err error, a *admission.Admission) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case idxActivePatient:
			return apperror.NewConflict(apperror.ConflictAlreadyAdmitted, "patient already has an active admission").
				WithDetail("patientId", a.PatientID)
		case idxActiveBed:
			return apperror.NewConflict(apperror.ConflictBedUnavailable, "bed is not available").
				WithDetail("bedId", a.BedID.String())
		}
	}
	return err
}
