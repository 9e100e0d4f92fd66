// Package service contains the purchase orchestrator. Buying tickets is
// the one operation in the system that mutates shared counters (card
// balance, function capacity), so it runs as a single database transaction
// with explicit row locks instead of the plain read-then-write the CRUD
// handlers use.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/boleteria/cinema-api/internal/repository"
	"github.com/boleteria/cinema-api/internal/validator"
)

// TicketPrice is the fixed process-wide price of a single ticket, in
// currency units.
var TicketPrice = decimal.NewFromInt(2500)

// TicketService coordinates the repositories involved in a purchase and
// owns the transaction boundary around them.
type TicketService struct {
	db        *sql.DB
	functions *repository.FunctionRepo
	cards     *repository.CardRepo
	tickets   *repository.TicketRepo
	movies    *repository.MovieRepo
}

// NewTicketService constructs a TicketService. All dependencies must be
// non-nil.
func NewTicketService(db *sql.DB, functions *repository.FunctionRepo, cards *repository.CardRepo, tickets *repository.TicketRepo, movies *repository.MovieRepo) *TicketService {
	if db == nil || functions == nil || cards == nil || tickets == nil || movies == nil {
		panic("nil dependency passed to NewTicketService")
	}
	return &TicketService{db: db, functions: functions, cards: cards, tickets: tickets, movies: movies}
}

// BuyTickets purchases quantity tickets for the given function on behalf of
// the authenticated user. The whole sequence runs in one transaction:
//
//  1. lock the function row, validate capacity against the locked value
//  2. lock the card row, validate balance against the locked value
//  3. debit the card, decrement the capacity (both with re-check guards)
//  4. insert quantity ticket rows sharing one purchase timestamp
//
// Lock order is always function before card. On any failure the
// transaction rolls back and no partial write is visible; the returned
// error is one of the repository sentinels.
func (s *TicketService) BuyTickets(ctx context.Context, userID, functionID uint64, quantity int) ([]repository.TicketDetail, error) {
	if err := validator.ValidateFields(functionID, quantity); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	function, err := s.functions.GetForUpdateTx(ctx, tx, functionID)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateCapacity(function.AvailableCapacity, quantity); err != nil {
		return nil, err
	}

	card, err := s.cards.GetByUserIDForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	totalCost := TicketPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if err := validator.ValidateCardBalance(card.Balance, totalCost); err != nil {
		return nil, err
	}

	if err := s.cards.DebitTx(ctx, tx, card.ID, totalCost); err != nil {
		return nil, err
	}
	if err := s.functions.ReserveTx(ctx, tx, function.ID, uint32(quantity)); err != nil {
		return nil, err
	}

	movieTitle, err := s.movies.TitleTx(ctx, tx, function.MovieID)
	if err != nil {
		return nil, err
	}

	// One timestamp for the whole purchase; every ticket of the batch
	// carries it.
	purchasedAt := time.Now().UTC()
	details := make([]repository.TicketDetail, 0, quantity)
	for i := 0; i < quantity; i++ {
		t := &repository.Ticket{
			UserID:      userID,
			FunctionID:  function.ID,
			Price:       TicketPrice,
			PurchasedAt: purchasedAt,
		}
		if err := s.tickets.CreateTx(ctx, tx, t); err != nil {
			return nil, err
		}
		details = append(details, repository.TicketDetail{
			ID:           t.ID,
			PurchaseDate: purchasedAt.Format("2006-01-02"),
			MovieTitle:   movieTitle,
			CinemaID:     function.CinemaID,
			PurchaseTime: purchasedAt.Format("15:04:05"),
			Price:        TicketPrice,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"function_id": function.ID,
		"quantity":    quantity,
		"total":       totalCost.String(),
	}).Info("tickets purchased")

	s.publishPurchased(userID, function.ID, function.CinemaID, movieTitle, details, totalCost, purchasedAt)

	return details, nil
}

// FindTicketsFromUser returns all tickets owned by the user in purchase
// order.
func (s *TicketService) FindTicketsFromUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// FindTicketByID returns a single ticket, enforcing that it belongs to the
// requesting user. A foreign ticket yields ErrForbidden regardless of its
// validity.
func (s *TicketService) FindTicketByID(ctx context.Context, userID, ticketID uint64) (*repository.TicketDetail, error) {
	if err := validator.ValidateTicketID(ticketID); err != nil {
		return nil, err
	}
	det, ownerID, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, repository.ErrForbidden
	}
	return det, nil
}
