package domain_test

import (
	"testing"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestAccountType_NormalBalance(t *testing.T) {
	tests := []struct {
		accountType domain.AccountType
		want        domain.PostingSide
	}{
		{domain.Asset, domain.Debit},
		{domain.Expense, domain.Debit},
		{domain.Liability, domain.Credit},
		{domain.Equity, domain.Credit},
		{domain.Revenue, domain.Credit},
	}

	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.accountType.NormalBalance())
		})
	}
}

func TestAccountType_IsValid(t *testing.T) {
	assert.True(t, domain.Revenue.IsValid())
	assert.False(t, domain.AccountType("INCOME").IsValid())
	assert.False(t, domain.AccountType("").IsValid())
}

func TestPostingSide_Opposite(t *testing.T) {
	assert.Equal(t, domain.Credit, domain.Debit.Opposite())
	assert.Equal(t, domain.Debit, domain.Credit.Opposite())
}
