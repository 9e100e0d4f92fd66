// Package repository contains data access logic separated from HTTP
// handlers. This file defines the Movie model and repository methods.
// Movies are referenced by screening functions; a movie cannot be removed
// while functions still point at it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Movie represents a film that can be scheduled in screening functions.
// Title is unique across the catalog.
type Movie struct {
	ID       uint64
	Title    string
	Duration string
	Genre    string
	Director string
	Rating   string
	Synopsis string
}

// MovieRepo encapsulates all database queries related to movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a new movie. On success the ID field is populated with the
// auto-generated value. A duplicate title returns ErrMovieExists.
func (r *MovieRepo) Create(ctx context.Context, m *Movie) error {
	const q = `INSERT INTO movies (title, duration, genre, director, rating, synopsis)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Duration, m.Genre, m.Director, m.Rating, m.Synopsis)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrMovieExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID fetches a movie by its ID. It returns ErrMovieNotFound when no
// row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*Movie, error) {
	const q = `SELECT id, title, duration, genre, director, rating, synopsis FROM movies WHERE id = ?`
	var m Movie
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Title, &m.Duration, &m.Genre, &m.Director, &m.Rating, &m.Synopsis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// TitleTx returns just the movie title, reading through the caller's
// transaction. The purchase path uses it to build ticket details without
// locking the movies row.
func (r *MovieRepo) TitleTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
	var title string
	if err := tx.QueryRowContext(ctx, `SELECT title FROM movies WHERE id = ?`, id).Scan(&title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrMovieNotFound
		}
		return "", err
	}
	return title, nil
}

// ListAll returns all movies ordered by id.
func (r *MovieRepo) ListAll(ctx context.Context) ([]*Movie, error) {
	const q = `SELECT id, title, duration, genre, director, rating, synopsis FROM movies ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Movie
	for rows.Next() {
		m := new(Movie)
		if err := rows.Scan(&m.ID, &m.Title, &m.Duration, &m.Genre, &m.Director, &m.Rating, &m.Synopsis); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites all mutable movie fields. It returns ErrMovieNotFound
// when no row is affected.
func (r *MovieRepo) Update(ctx context.Context, m *Movie) error {
	const q = `UPDATE movies
	           SET title = ?, duration = ?, genre = ?, director = ?, rating = ?, synopsis = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Duration, m.Genre, m.Director, m.Rating, m.Synopsis, m.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrMovieExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "no such row" from "no change": re-check existence.
		if _, err := r.GetByID(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a movie. Functions referencing the movie block deletion
// with ErrConflict at the DB layer via the FK constraint.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1451") {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
