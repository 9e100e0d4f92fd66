package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boleteria/cinema-api/internal/repository"
	"github.com/boleteria/cinema-api/internal/service"
)

// TicketHandler exposes purchase and ticket lookup endpoints.
type TicketHandler struct {
	Tickets *service.TicketService
}

func NewTicketHandler(s *service.TicketService) *TicketHandler {
	return &TicketHandler{Tickets: s}
}

type buyTicketsReq struct {
	FunctionID uint64 `json:"function_id"`
	Quantity   int    `json:"quantity"`
}

// Buy purchases one or more tickets for a screening in a single
// transaction and returns the created tickets.
func (h *TicketHandler) Buy(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req buyTicketsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	details, err := h.Tickets.BuyTickets(c.Request().Context(), userID, req.FunctionID, req.Quantity)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, details)
}

// ListMine returns every ticket the caller has bought, in purchase order.
// No tickets yields 204 with an empty body.
func (h *TicketHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Tickets.FindTicketsFromUser(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if len(details) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, details)
}

// Get returns a single ticket. Tickets belonging to another user are not
// disclosed.
func (h *TicketHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	detail, err := h.Tickets.FindTicketByID(c.Request().Context(), userID, id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}
