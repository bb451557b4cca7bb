package occupancy

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/domain/admission"
	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool       *pgxpool.Pool
	admissions admission.Repository
}

func NewRepo(pool *pgxpool.Pool, admissions admission.Repository) Repository {
	return &repoPG{pool: pool, admissions: admissions}
}

// snapshot runs fn in a read-only repeatable-read transaction so every query
// inside one report sees the same committed state.
func (r *repoPG) snapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, tx, err := db.WithTxOptions(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *repoPG) WardOccupancy(ctx context.Context) ([]*WardOccupancy, error) {
	var out []*WardOccupancy
	err := r.snapshot(ctx, func(txCtx context.Context) error {
		tx := db.TxFromContext(txCtx)
		rows, err := tx.Query(txCtx, `
			SELECT w.id, w.name, w.ward_type, w.capacity,
				COUNT(b.id) FILTER (WHERE b.is_occupied) AS occupied,
				COUNT(b.id) FILTER (WHERE b.is_active AND NOT b.is_occupied) AS available
			FROM ward w
			LEFT JOIN bed b ON b.ward_id = w.id
			WHERE w.is_active
			GROUP BY w.id, w.name, w.ward_type, w.capacity
			ORDER BY w.name`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var wo WardOccupancy
			if err := rows.Scan(&wo.WardID, &wo.WardName, &wo.WardType,
				&wo.Capacity, &wo.Occupied, &wo.Available); err != nil {
				return err
			}
			wo.Rate = Rate(wo.Occupied, wo.Capacity)
			wo.Band = BandFor(wo.Rate)
			out = append(out, &wo)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoPG) BedStats(ctx context.Context) (*BedStats, error) {
	var s BedStats
	err := r.snapshot(ctx, func(txCtx context.Context) error {
		tx := db.TxFromContext(txCtx)
		return tx.QueryRow(txCtx, `
			SELECT COUNT(*),
				COUNT(*) FILTER (WHERE is_occupied),
				COUNT(*) FILTER (WHERE is_active AND NOT is_occupied),
				COUNT(*) FILTER (WHERE is_active)
			FROM bed`).Scan(&s.Total, &s.Occupied, &s.Available, &s.Active)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) AdmissionStats(ctx context.Context, day time.Time) (*admission.Stats, error) {
	var s *admission.Stats
	err := r.snapshot(ctx, func(txCtx context.Context) error {
		var err error
		s, err = r.admissions.Stats(txCtx, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
