// This file defines the Ticket model and repository methods. Tickets are
// immutable: they are inserted inside a successful purchase transaction and
// never updated or deleted afterwards. Each row snapshots the price paid,
// so later price changes never rewrite history.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Ticket mirrors the tickets table. Price is the unit price snapshotted at
// purchase time; PurchasedAt is shared by all tickets of one purchase.
type Ticket struct {
	ID          uint64
	UserID      uint64
	FunctionID  uint64
	Price       decimal.Decimal
	PurchasedAt time.Time
}

// TicketDetail is the display representation of a ticket returned to
// clients: the purchase date and time split out, plus the movie title and
// cinema of the screening.
type TicketDetail struct {
	ID           uint64          `json:"id"`
	PurchaseDate string          `json:"purchase_date"`
	MovieTitle   string          `json:"movie_title"`
	CinemaID     uint64          `json:"cinema_id"`
	PurchaseTime string          `json:"purchase_time"`
	Price        decimal.Decimal `json:"price"`
}

// TicketRepo encapsulates database operations for tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// CreateTx inserts one ticket row within the purchase transaction and
// populates the generated ID. All validation happens upstream; this is a
// plain insert.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *Ticket) error {
	const q = `INSERT INTO tickets (user_id, function_id, price, purchased_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.UserID, t.FunctionID, t.Price, t.PurchasedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

const ticketDetailQuery = `SELECT t.id, t.purchased_at, m.title, f.cinema_id, t.price
FROM tickets t
JOIN functions f ON f.id = t.function_id
JOIN movies m ON m.id = f.movie_id`

// GetByID returns a single ticket with display fields plus the owning user
// id, so the service layer can enforce ownership. It returns
// ErrTicketNotFound when no row exists.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*TicketDetail, uint64, error) {
	const q = `SELECT t.id, t.user_id, t.purchased_at, m.title, f.cinema_id, t.price
	           FROM tickets t
	           JOIN functions f ON f.id = t.function_id
	           JOIN movies m ON m.id = f.movie_id
	           WHERE t.id = ?`
	var (
		det         TicketDetail
		ownerID     uint64
		purchasedAt time.Time
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&det.ID, &ownerID, &purchasedAt, &det.MovieTitle, &det.CinemaID, &det.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrTicketNotFound
		}
		return nil, 0, err
	}
	det.PurchaseDate = purchasedAt.UTC().Format("2006-01-02")
	det.PurchaseTime = purchasedAt.UTC().Format("15:04:05")
	return &det, ownerID, nil
}

// ListByUser returns all tickets belonging to the user in purchase order
// (ascending id: insertion order equals purchase order).
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	q := ticketDetailQuery + ` WHERE t.user_id = ? ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]TicketDetail, 0)
	for rows.Next() {
		var (
			det         TicketDetail
			purchasedAt time.Time
		)
		if err := rows.Scan(&det.ID, &purchasedAt, &det.MovieTitle, &det.CinemaID, &det.Price); err != nil {
			return nil, err
		}
		det.PurchaseDate = purchasedAt.UTC().Format("2006-01-02")
		det.PurchaseTime = purchasedAt.UTC().Format("15:04:05")
		details = append(details, det)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
