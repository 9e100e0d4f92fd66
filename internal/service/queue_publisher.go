package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boleteria/cinema-api/internal/queue"
	"github.com/boleteria/cinema-api/internal/repository"
)

// publishPurchased fires the ticket.purchased event for a committed
// purchase. It runs in its own goroutine with a short deadline so a slow or
// absent broker never delays the HTTP response; errors are logged inside
// the publisher and otherwise ignored.
func (s *TicketService) publishPurchased(userID, functionID, cinemaID uint64, movieTitle string, details []repository.TicketDetail, total decimal.Decimal, purchasedAt time.Time) {
	ids := make([]uint64, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	ev := queue.TicketPurchasedEvent{
		TicketIDs:   ids,
		UserID:      userID,
		FunctionID:  functionID,
		MovieTitle:  movieTitle,
		CinemaID:    cinemaID,
		Quantity:    len(details),
		Total:       total.String(),
		PurchasedAt: purchasedAt.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue.PublishTicketPurchased(ctx, ev)
	}()
}
