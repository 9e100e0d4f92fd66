package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/boleteria/cinema-api/internal/repository"
	"github.com/boleteria/cinema-api/internal/validator"
)

// CardHandler exposes the caller's virtual payment card. A user holds at
// most one card.
type CardHandler struct {
	Cards *repository.CardRepo
}

func NewCardHandler(r *repository.CardRepo) *CardHandler {
	return &CardHandler{Cards: r}
}

type rechargeReq struct {
	Amount decimal.Decimal `json:"amount"`
}

type cardResp struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

func toCardResp(card *repository.Card) cardResp {
	return cardResp{
		ID:        card.ID,
		UserID:    card.UserID,
		Balance:   card.Balance,
		CreatedAt: card.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: card.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Create opens a card with zero balance for the caller.
func (h *CardHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	card, err := h.Cards.Create(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, toCardResp(card))
}

// Get returns the caller's card.
func (h *CardHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	card, err := h.Cards.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toCardResp(card))
}

// Balance returns only the card's balance.
func (h *CardHandler) Balance(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	card, err := h.Cards.GetByUserID(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": card.Balance})
}

// Recharge adds funds to the caller's card and returns the updated card.
func (h *CardHandler) Recharge(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req rechargeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validator.ValidateRechargeAmount(req.Amount); err != nil {
		return writeDomainError(c, err)
	}
	card, err := h.Cards.Credit(c.Request().Context(), userID, req.Amount)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toCardResp(card))
}

type updateCardReq struct {
	Balance decimal.Decimal `json:"balance"`
}

// Update replaces the card balance. Negative balances are rejected.
func (h *CardHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateCardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Balance.IsNegative() {
		return writeDomainError(c, repository.ErrInvalidRequest)
	}
	card, err := h.Cards.UpdateBalance(c.Request().Context(), userID, req.Balance)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, toCardResp(card))
}

// Delete removes the caller's card.
func (h *CardHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Cards.Delete(c.Request().Context(), userID); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
