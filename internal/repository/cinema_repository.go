// This file defines the Cinema model and repository methods for CRUD and
// lookup operations. A Cinema is a single screening room: it has one screen
// type and a fixed number of seats, and functions scheduled in it inherit
// its seat capacity.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Cinema represents a screening room persisted in the database. ScreenType
// is one of 2D, 3D or IMAX. Disabled rooms are excluded from scheduling but
// kept for history.
type Cinema struct {
	ID           uint64
	Name         string
	ScreenType   string
	SeatCapacity uint32
	Enabled      bool
	CreatedAt    string
	UpdatedAt    string
}

// CinemaRepo encapsulates all database queries related to cinemas.
type CinemaRepo struct {
	db *sql.DB
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle. This
// allows dependency injection of the database in tests and at startup.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

// Create inserts a new cinema. On success the cinema's ID field is
// populated with the auto-generated value, and a follow-up SELECT fills the
// DB-default timestamp fields.
func (r *CinemaRepo) Create(ctx context.Context, c *Cinema) error {
	const qInsert = `INSERT INTO cinemas (name, screen_type, seat_capacity, enabled) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, c.Name, c.ScreenType, c.SeatCapacity, c.Enabled)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	const qSelect = `SELECT name, screen_type, seat_capacity, enabled, created_at, updated_at FROM cinemas WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, c.ID).Scan(
		&c.Name, &c.ScreenType, &c.SeatCapacity, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID fetches a cinema by its ID. It returns ErrCinemaNotFound if no
// row is found.
func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (*Cinema, error) {
	const q = `SELECT id, name, screen_type, seat_capacity, enabled, created_at, updated_at FROM cinemas WHERE id = ?`
	var c Cinema
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.ScreenType, &c.SeatCapacity, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListAll returns all cinemas ordered by id.
func (r *CinemaRepo) ListAll(ctx context.Context) ([]*Cinema, error) {
	const q = `SELECT id, name, screen_type, seat_capacity, enabled, created_at, updated_at
	           FROM cinemas ORDER BY id`
	return r.list(ctx, q)
}

// ListByScreenType returns cinemas whose screen matches the given type.
func (r *CinemaRepo) ListByScreenType(ctx context.Context, screenType string) ([]*Cinema, error) {
	const q = `SELECT id, name, screen_type, seat_capacity, enabled, created_at, updated_at
	           FROM cinemas WHERE screen_type = ? ORDER BY id`
	return r.list(ctx, q, screenType)
}

// ListByEnabled returns cinemas filtered by their enabled flag.
func (r *CinemaRepo) ListByEnabled(ctx context.Context, enabled bool) ([]*Cinema, error) {
	const q = `SELECT id, name, screen_type, seat_capacity, enabled, created_at, updated_at
	           FROM cinemas WHERE enabled = ? ORDER BY id`
	return r.list(ctx, q, enabled)
}

// ListBySeatCapacity returns cinemas with at least the given number of seats.
func (r *CinemaRepo) ListBySeatCapacity(ctx context.Context, capacity uint32) ([]*Cinema, error) {
	const q = `SELECT id, name, screen_type, seat_capacity, enabled, created_at, updated_at
	           FROM cinemas WHERE seat_capacity >= ? ORDER BY id`
	return r.list(ctx, q, capacity)
}

func (r *CinemaRepo) list(ctx context.Context, q string, args ...interface{}) ([]*Cinema, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Cinema
	for rows.Next() {
		c := new(Cinema)
		if err := rows.Scan(&c.ID, &c.Name, &c.ScreenType, &c.SeatCapacity, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable cinema fields. It returns ErrCinemaNotFound
// when the row does not exist.
func (r *CinemaRepo) Update(ctx context.Context, c *Cinema) error {
	const q = `UPDATE cinemas
	           SET name = ?, screen_type = ?, seat_capacity = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.ScreenType, c.SeatCapacity, c.Enabled, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a cinema provided no functions are scheduled in it. The
// check and the delete run in one transaction so a function cannot appear
// in between.
func (r *CinemaRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM cinemas WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCinemaNotFound
		}
		return err
	}
	var dependents int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM functions WHERE cinema_id = ?`, id).Scan(&dependents); err != nil {
		return err
	}
	if dependents > 0 {
		err = ErrConflict
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM cinemas WHERE id = ?`, id)
	return err
}
