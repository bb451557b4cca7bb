package ward

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

const wardCols = `id, name, ward_type, capacity, floor, daily_rate, is_active, created_at, updated_at`

// Partial unique index on active ward names. The service pre-checks the name,
// but two concurrent creates can both pass that check; the index is what
// actually decides, so its violation maps to the same validation error.
const idxActiveName = "ux_ward_active_name"

func (r *repoPG) Create(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ward (id, name, ward_type, capacity, floor, daily_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Name, w.Type, w.Capacity, w.Floor, w.DailyRate, w.IsActive,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return r.conn(ctx).QueryRow(ctx,
		`SELECT created_at, updated_at FROM ward WHERE id = $1`, w.ID,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Ward, error) {
	return scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, w *Ward) error {
	if db.TxFromContext(ctx) != nil {
		return r.updateLocked(ctx, w)
	}
	return db.RunInTx(ctx, r.pool, func(txCtx context.Context) error {
		return r.updateLocked(txCtx, w)
	})
}

// updateLocked takes the same ward row lock the allocation store admits
// under, so a capacity change and a concurrent bed claim serialize instead
// of slipping past each other's checks.
func (r *repoPG) updateLocked(ctx context.Context, w *Ward) error {
	q := r.conn(ctx)

	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM ward WHERE id = $1 FOR UPDATE`, w.ID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("ward", w.ID.String())
	}
	if err != nil {
		return err
	}

	var occupied int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM bed WHERE ward_id = $1 AND is_occupied`, w.ID).Scan(&occupied); err != nil {
		return err
	}
	if w.Capacity < occupied {
		return apperror.NewValidation("capacity cannot drop below currently occupied beds", "capacity")
	}

	_, err = q.Exec(ctx, `
		UPDATE ward SET
			name=$2, ward_type=$3, capacity=$4, floor=$5, daily_rate=$6,
			is_active=$7, updated_at=NOW()
		WHERE id=$1`,
		w.ID, w.Name, w.Type, w.Capacity, w.Floor, w.DailyRate, w.IsActive,
	)
	return mapUniqueViolation(err)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == idxActiveName {
		return apperror.NewValidation("ward name already in use among active wards", "name")
	}
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Ward, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	n := 0
	if f.Type != "" {
		n++
		where += fmt.Sprintf(" AND ward_type = $%d", n)
		args = append(args, f.Type)
	}
	if f.Active != nil {
		n++
		where += fmt.Sprintf(" AND is_active = $%d", n)
		args = append(args, *f.Active)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ward `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM ward %s ORDER BY name LIMIT $%d OFFSET $%d`,
		wardCols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, 0, err
		}
		wards = append(wards, w)
	}
	return wards, total, rows.Err()
}

func (r *repoPG) NameTaken(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ward WHERE LOWER(name) = LOWER($1) AND is_active AND id <> $2
		)`, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID, force bool) (*DeleteResult, error) {
	if db.TxFromContext(ctx) != nil {
		return r.deleteLocked(ctx, id, force)
	}
	var res *DeleteResult
	err := db.RunInTx(ctx, r.pool, func(txCtx context.Context) error {
		var err error
		res, err = r.deleteLocked(txCtx, id, force)
		return err
	})
	return res, err
}

// deleteLocked runs inside a transaction. It locks the ward row and all bed
// rows so the cascade cannot race an admission claiming one of the beds.
func (r *repoPG) deleteLocked(ctx context.Context, id uuid.UUID, force bool) (*DeleteResult, error) {
	q := r.conn(ctx)

	var wardID uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM ward WHERE id = $1 FOR UPDATE`, id).Scan(&wardID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("ward", id.String())
	}
	if err != nil {
		return nil, err
	}

	var occupied int
	err = q.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE is_occupied)
		FROM (SELECT is_occupied FROM bed WHERE ward_id = $1 FOR UPDATE) locked`, id).Scan(&occupied)
	if err != nil {
		return nil, err
	}

	var admitted int
	err = q.QueryRow(ctx,
		`SELECT COUNT(*) FROM admission WHERE ward_id = $1 AND status = 'ADMITTED'`, id).Scan(&admitted)
	if err != nil {
		return nil, err
	}

	if !force && (occupied > 0 || admitted > 0) {
		return nil, apperror.NewConflict(apperror.ConflictWardNotEmpty,
			"ward has active beds or admissions; pass force to cascade").
			WithDetail("occupiedBeds", occupied).
			WithDetail("activeAdmissions", admitted)
	}

	res := &DeleteResult{}

	if force {
		tag, err := q.Exec(ctx, `
			UPDATE admission SET status = 'DISCHARGED', discharge_date = $2,
				discharge_notes = COALESCE(discharge_notes, 'ward removed'), updated_at = NOW()
			WHERE ward_id = $1 AND status = 'ADMITTED'`, id, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		res.ClosedAdmissions = int(tag.RowsAffected())
	}

	tag, err := q.Exec(ctx, `DELETE FROM bed WHERE ward_id = $1`, id)
	if err != nil {
		return nil, err
	}
	res.RemovedBeds = int(tag.RowsAffected())

	if _, err := q.Exec(ctx, `DELETE FROM ward WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return res, nil
}

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(
		&w.ID, &w.Name, &w.Type, &w.Capacity, &w.Floor, &w.DailyRate,
		&w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("ward", "")
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
