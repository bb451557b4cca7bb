package bed

import (
	"context"
	"errors"
	"fmt"

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

const bedCols = `id, ward_id, bed_number, bed_type, is_occupied, is_active, notes, created_at, updated_at`

// Unique constraint on (ward_id, bed_number). The service pre-checks the
// number, but concurrent creates can both pass that check; the constraint is
// what actually decides, so its violation maps to the same validation error.
const uxWardNumber = "ux_bed_ward_number"

func (r *repoPG) Create(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed (id, ward_id, bed_number, bed_type, is_occupied, is_active, notes)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)`,
		b.ID, b.WardID, b.BedNumber, b.BedType, b.IsActive, b.Notes,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return r.conn(ctx).QueryRow(ctx,
		`SELECT is_occupied, created_at, updated_at FROM bed WHERE id = $1`, b.ID,
	).Scan(&b.IsOccupied, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, b *Bed) error {
	if db.TxFromContext(ctx) != nil {
		return r.updateLocked(ctx, b)
	}
	return db.RunInTx(ctx, r.pool, func(txCtx context.Context) error {
		return r.updateLocked(txCtx, b)
	})
}

// updateLocked locks the bed row before writing so deactivation cannot
// interleave with a concurrent claim marking the bed occupied.
func (r *repoPG) updateLocked(ctx context.Context, b *Bed) error {
	q := r.conn(ctx)

	var occupied bool
	err := q.QueryRow(ctx, `SELECT is_occupied FROM bed WHERE id = $1 FOR UPDATE`, b.ID).Scan(&occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("bed", b.ID.String())
	}
	if err != nil {
		return err
	}
	if !b.IsActive && occupied {
		return apperror.NewConflict(apperror.ConflictBedOccupied,
			"occupied bed cannot be deactivated").WithDetail("bedId", b.ID.String())
	}

	_, err = q.Exec(ctx, `
		UPDATE bed SET bed_number=$2, bed_type=$3, is_active=$4, notes=$5, updated_at=NOW()
		WHERE id=$1`,
		b.ID, b.BedNumber, b.BedType, b.IsActive, b.Notes,
	)
	return mapUniqueViolation(err)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uxWardNumber {
		return apperror.NewValidation("bed number already in use within ward", "bed_number")
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	if db.TxFromContext(ctx) != nil {
		return r.deleteLocked(ctx, id)
	}
	return db.RunInTx(ctx, r.pool, func(txCtx context.Context) error {
		return r.deleteLocked(txCtx, id)
	})
}

func (r *repoPG) deleteLocked(ctx context.Context, id uuid.UUID) error {
	q := r.conn(ctx)

	var occupied bool
	err := q.QueryRow(ctx, `SELECT is_occupied FROM bed WHERE id = $1 FOR UPDATE`, id).Scan(&occupied)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound("bed", id.String())
	}
	if err != nil {
		return err
	}
	if occupied {
		return apperror.NewConflict(apperror.ConflictBedOccupied, "bed is occupied and cannot be deleted").
			WithDetail("bedId", id.String())
	}

	_, err = q.Exec(ctx, `DELETE FROM bed WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	n := 0
	if f.WardID != uuid.Nil {
		n++
		where += fmt.Sprintf(" AND ward_id = $%d", n)
		args = append(args, f.WardID)
	}
	if f.BedType != "" {
		n++
		where += fmt.Sprintf(" AND bed_type = $%d", n)
		args = append(args, f.BedType)
	}
	if f.Occupied != nil {
		n++
		where += fmt.Sprintf(" AND is_occupied = $%d", n)
		args = append(args, *f.Occupied)
	}
	if f.Active != nil {
		n++
		where += fmt.Sprintf(" AND is_active = $%d", n)
		args = append(args, *f.Active)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bed `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM bed %s ORDER BY bed_number LIMIT $%d OFFSET $%d`,
		bedCols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		beds = append(beds, b)
	}
	return beds, total, rows.Err()
}

func (r *repoPG) ListAvailable(ctx context.Context, wardID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bedCols+` FROM bed
		WHERE ward_id = $1 AND is_active AND NOT is_occupied
		ORDER BY bed_number`, wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func (r *repoPG) NumberTaken(ctx context.Context, wardID uuid.UUID, number string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bed WHERE ward_id = $1 AND bed_number = $2 AND id <> $3
		)`, wardID, number, excludeID).Scan(&exists)
	return exists, err
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(
		&b.ID, &b.WardID, &b.BedNumber, &b.BedType, &b.IsOccupied, &b.IsActive,
		&b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("bed", "")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
