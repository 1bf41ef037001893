package domain

import (
	"fmt"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Money is a currency-tagged fixed-point value. Arithmetic between values of
// different currencies fails with apperrors.ErrCurrencyMismatch; there is no
// implicit conversion.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// NewMoney creates a Money value from a decimal amount and currency code.
func NewMoney(amount decimal.Decimal, currencyCode string) Money {
	return Money{Amount: amount, CurrencyCode: currencyCode}
}

// NewMoneyFromMinorUnits creates a Money value from an integer count of minor
// units (e.g. cents) given the currency's precision.
func NewMoneyFromMinorUnits(minorUnits int64, precision int32, currencyCode string) Money {
	return Money{
		Amount:       decimal.New(minorUnits, -precision),
		CurrencyCode: currencyCode,
	}
}

// ZeroMoney returns the zero value for the given currency.
func ZeroMoney(currencyCode string) Money {
	return Money{Amount: decimal.Zero, CurrencyCode: currencyCode}
}

// Add returns m + other, failing if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.CurrencyCode != other.CurrencyCode {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", apperrors.ErrCurrencyMismatch, other.CurrencyCode, m.CurrencyCode)
	}
	return Money{Amount: m.Amount.Add(other.Amount), CurrencyCode: m.CurrencyCode}, nil
}

// Sub returns m - other, failing if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.CurrencyCode != other.CurrencyCode {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", apperrors.ErrCurrencyMismatch, other.CurrencyCode, m.CurrencyCode)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), CurrencyCode: m.CurrencyCode}, nil
}

// Neg returns the negated value.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), CurrencyCode: m.CurrencyCode}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Equal reports whether both amount and currency match exactly.
func (m Money) Equal(other Money) bool {
	return m.CurrencyCode == other.CurrencyCode && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.CurrencyCode
}
