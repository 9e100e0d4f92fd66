// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// TicketPurchasedEvent is published after a purchase transaction commits.
// It contains enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type TicketPurchasedEvent struct {
	TicketIDs   []uint64 `json:"ticket_ids"`
	UserID      uint64   `json:"user_id"`
	FunctionID  uint64   `json:"function_id"`
	MovieTitle  string   `json:"movie_title"`
	CinemaID    uint64   `json:"cinema_id"`
	Quantity    int      `json:"quantity"`
	Total       string   `json:"total"`
	PurchasedAt string   `json:"purchased_at"`
}
