// Package validator holds the pure precondition checks for ticket
// purchases. Every function here is stateless and side-effect-free: it
// reads the values passed in and returns one of the sentinel errors from
// the repository package, or nil. State-changing decisions stay in the
// service layer.
package validator

import (
	"github.com/shopspring/decimal"

	"github.com/boleteria/cinema-api/internal/repository"
)

// ValidateFields rejects a purchase request whose quantity is not positive
// or whose function reference is missing.
func ValidateFields(functionID uint64, quantity int) error {
	if functionID == 0 || quantity <= 0 {
		return repository.ErrInvalidRequest
	}
	return nil
}

// ValidateCapacity rejects a purchase that asks for more seats than the
// function has available. The caller must pass the capacity of a row it has
// locked, otherwise the check is advisory only.
func ValidateCapacity(available uint32, quantity int) error {
	if quantity <= 0 || uint32(quantity) > available {
		return repository.ErrInsufficientCapacity
	}
	return nil
}

// ValidateCardBalance rejects a purchase whose total cost exceeds the card
// balance.
func ValidateCardBalance(balance, totalCost decimal.Decimal) error {
	if totalCost.GreaterThan(balance) {
		return repository.ErrInsufficientFunds
	}
	return nil
}

// ValidateTicketID rejects non-positive ticket identifiers.
func ValidateTicketID(id uint64) error {
	if id == 0 {
		return repository.ErrInvalidRequest
	}
	return nil
}

// ValidateRechargeAmount rejects non-positive recharge amounts.
func ValidateRechargeAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return repository.ErrInvalidRequest
	}
	return nil
}
