// This file defines the Function model and repository methods. A Function
// is a scheduled screening of a movie in a cinema with a seat counter that
// is only ever decremented by committed ticket purchases.
//
// The purchase path uses the Tx variants: the function row is locked with
// SELECT ... FOR UPDATE for the lifetime of the purchase transaction, and
// the capacity decrement carries its own availability guard so the counter
// can never go below zero even if the isolation level is weakened.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Function represents a scheduled screening. AvailableCapacity starts equal
// to TotalCapacity and satisfies 0 <= available <= total at all times.
type Function struct {
	ID                uint64
	CinemaID          uint64
	MovieID           uint64
	ShowDatetime      time.Time
	TotalCapacity     uint32
	AvailableCapacity uint32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FunctionListItem is the joined row returned by list queries: the function
// plus the movie title and cinema name for display.
type FunctionListItem struct {
	Function
	MovieTitle string
	CinemaName string
}

// FunctionRepo manages persistence for screening functions.
type FunctionRepo struct {
	db *sql.DB
}

// NewFunctionRepo constructs a FunctionRepo given a DB handle.
func NewFunctionRepo(db *sql.DB) *FunctionRepo {
	return &FunctionRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows callers to begin transactions
// spanning multiple repositories.
func (r *FunctionRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a new function using the provided transaction. The
// caller must commit or roll back. On success the generated ID and the
// DB-default timestamps are populated on the given Function.
func (r *FunctionRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *Function) error {
	const q = `INSERT INTO functions (cinema_id, movie_id, show_datetime, total_capacity, available_capacity)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, f.CinemaID, f.MovieID, f.ShowDatetime, f.TotalCapacity, f.AvailableCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM functions WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, f.ID).Scan(&f.CreatedAt, &f.UpdatedAt)
}

// GetByID fetches a function by id. It returns ErrFunctionNotFound when no
// row exists.
func (r *FunctionRepo) GetByID(ctx context.Context, id uint64) (*Function, error) {
	const q = `SELECT id, cinema_id, movie_id, show_datetime, total_capacity, available_capacity, created_at, updated_at
	           FROM functions WHERE id = ?`
	var f Function
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.CinemaID, &f.MovieID, &f.ShowDatetime, &f.TotalCapacity, &f.AvailableCapacity,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFunctionNotFound
		}
		return nil, err
	}
	return &f, nil
}

// GetForUpdateTx loads a function inside the purchase transaction and
// acquires an exclusive row lock on it. Concurrent purchases of the same
// function serialize on this lock, so the capacity the caller validates
// against is the latest committed value. Only the functions row is locked;
// movie and cinema rows are read without locks elsewhere.
func (r *FunctionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*Function, error) {
	const q = `SELECT id, cinema_id, movie_id, show_datetime, total_capacity, available_capacity
	           FROM functions WHERE id = ? FOR UPDATE`
	var f Function
	if err := tx.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.CinemaID, &f.MovieID, &f.ShowDatetime, &f.TotalCapacity, &f.AvailableCapacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFunctionNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ReserveTx decrements the available capacity by quantity inside the
// purchase transaction. The WHERE clause re-checks availability so the row
// is never driven below zero; zero affected rows means another transaction
// consumed the seats first and the caller must abort with
// ErrInsufficientCapacity.
func (r *FunctionRepo) ReserveTx(ctx context.Context, tx *sql.Tx, id uint64, quantity uint32) error {
	const q = `UPDATE functions
	           SET available_capacity = available_capacity - ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND available_capacity >= ?`
	res, err := tx.ExecContext(ctx, q, quantity, id, quantity)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientCapacity
	}
	return nil
}

const functionListQuery = `SELECT f.id, f.cinema_id, f.movie_id, f.show_datetime,
       f.total_capacity, f.available_capacity, f.created_at, f.updated_at,
       m.title, c.name
FROM functions f
JOIN movies m ON m.id = f.movie_id
JOIN cinemas c ON c.id = f.cinema_id`

// ListAll returns all functions joined with movie and cinema display
// fields, ordered by id.
func (r *FunctionRepo) ListAll(ctx context.Context) ([]*FunctionListItem, error) {
	return r.list(ctx, functionListQuery+` ORDER BY f.id`)
}

// ListAvailableByMovie returns functions for a movie that still have seats
// left, ordered by show time.
func (r *FunctionRepo) ListAvailableByMovie(ctx context.Context, movieID uint64) ([]*FunctionListItem, error) {
	return r.list(ctx, functionListQuery+` WHERE f.movie_id = ? AND f.available_capacity > 0 ORDER BY f.show_datetime`, movieID)
}

// ListByScreenType returns functions scheduled in cinemas with the given
// screen type.
func (r *FunctionRepo) ListByScreenType(ctx context.Context, screenType string) ([]*FunctionListItem, error) {
	return r.list(ctx, functionListQuery+` WHERE c.screen_type = ? ORDER BY f.show_datetime`, screenType)
}

func (r *FunctionRepo) list(ctx context.Context, q string, args ...interface{}) ([]*FunctionListItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*FunctionListItem
	for rows.Next() {
		it := new(FunctionListItem)
		if err := rows.Scan(
			&it.ID, &it.CinemaID, &it.MovieID, &it.ShowDatetime,
			&it.TotalCapacity, &it.AvailableCapacity, &it.CreatedAt, &it.UpdatedAt,
			&it.MovieTitle, &it.CinemaName); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSchedule moves a function to a different cinema, movie or show
// time. Capacity counters are not touched here; they belong to the
// purchase path alone.
func (r *FunctionRepo) UpdateSchedule(ctx context.Context, f *Function) error {
	const q = `UPDATE functions
	           SET cinema_id = ?, movie_id = ?, show_datetime = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.CinemaID, f.MovieID, f.ShowDatetime, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a function provided no tickets have been sold for it.
func (r *FunctionRepo) Delete(ctx context.Context, id uint64) (err error) {
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
	if err = tx.QueryRowContext(ctx, `SELECT id FROM functions WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrFunctionNotFound
		}
		return err
	}
	var sold int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE function_id = ?`, id).Scan(&sold); err != nil {
		return err
	}
	if sold > 0 {
		err = ErrConflict
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM functions WHERE id = ?`, id)
	return err
}
