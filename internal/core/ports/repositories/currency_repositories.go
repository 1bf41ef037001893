package repositories

import (
	"context"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
)

// CurrencyRepositoryFacade defines persistence operations for Currencies.
type CurrencyRepositoryFacade interface {
	SaveCurrency(ctx context.Context, currency domain.Currency) error
	FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
