// This file defines the Card model and repository methods. A card is a
// user's stored-value payment instrument: exactly one per user, with a
// balance that must never go negative.
//
// Balance mutations go through guarded UPDATE statements: the WHERE clause
// re-checks the balance so a concurrent debit that slipped past validation
// still cannot overdraw the card. The purchase transaction additionally
// locks the row with GetByUserIDForUpdateTx before validating.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Card represents a stored-value card persisted in the database. Balance is
// a DECIMAL(12,2) column scanned into a decimal.Decimal.
type Card struct {
	ID        uint64
	UserID    uint64
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardRepo encapsulates all database queries related to cards.
type CardRepo struct {
	db *sql.DB
}

// NewCardRepo constructs a CardRepo with the provided DB handle.
func NewCardRepo(db *sql.DB) *CardRepo {
	return &CardRepo{db: db}
}

// Create registers a card for the user with a zero balance. The UNIQUE
// constraint on user_id enforces the one-card-per-user rule; violating it
// returns ErrCardExists.
func (r *CardRepo) Create(ctx context.Context, userID uint64) (*Card, error) {
	const q = `INSERT INTO cards (user_id, balance) VALUES (?, 0)`
	res, err := r.db.ExecContext(ctx, q, userID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return nil, ErrCardExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getByID(ctx, uint64(id))
}

func (r *CardRepo) getByID(ctx context.Context, id uint64) (*Card, error) {
	const q = `SELECT id, user_id, balance, created_at, updated_at FROM cards WHERE id = ?`
	var c Card
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.UserID, &c.Balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByUserID fetches the card belonging to the given user. It returns
// ErrCardNotFound when the user has no registered card.
func (r *CardRepo) GetByUserID(ctx context.Context, userID uint64) (*Card, error) {
	const q = `SELECT id, user_id, balance, created_at, updated_at FROM cards WHERE user_id = ?`
	var c Card
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.Balance, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByUserIDForUpdateTx loads the user's card inside the purchase
// transaction and acquires an exclusive row lock. The lock order is always
// function row first, card row second, so concurrent purchases cannot
// deadlock across the two tables.
func (r *CardRepo) GetByUserIDForUpdateTx(ctx context.Context, tx *sql.Tx, userID uint64) (*Card, error) {
	const q = `SELECT id, user_id, balance FROM cards WHERE user_id = ? FOR UPDATE`
	var c Card
	if err := tx.QueryRowContext(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &c, nil
}

// DebitTx subtracts amount from the card balance inside the purchase
// transaction. The WHERE clause re-checks the balance; zero affected rows
// means the funds are gone and the caller must abort with
// ErrInsufficientFunds.
func (r *CardRepo) DebitTx(ctx context.Context, tx *sql.Tx, cardID uint64, amount decimal.Decimal) error {
	const q = `UPDATE cards
	           SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND balance >= ?`
	res, err := tx.ExecContext(ctx, q, amount, cardID, amount)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount to the card balance and returns the updated card.
// Amount positivity is validated upstream; the balance invariant cannot be
// violated by an addition.
func (r *CardRepo) Credit(ctx context.Context, userID uint64, amount decimal.Decimal) (*Card, error) {
	const q = `UPDATE cards
	           SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP
	           WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, q, amount, userID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrCardNotFound
	}
	return r.GetByUserID(ctx, userID)
}

// UpdateBalance replaces the card balance outright. Only the card update
// endpoint uses it; the purchase path goes through DebitTx.
func (r *CardRepo) UpdateBalance(ctx context.Context, userID uint64, balance decimal.Decimal) (*Card, error) {
	const q = `UPDATE cards
	           SET balance = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, q, balance, userID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrCardNotFound
	}
	return r.GetByUserID(ctx, userID)
}

// Delete removes the user's card. Ticket history is kept; tickets reference
// the user, not the card.
func (r *CardRepo) Delete(ctx context.Context, userID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCardNotFound
	}
	return nil
}
