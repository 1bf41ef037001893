package accounting

import (
	"fmt"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the correct sign to a posting amount based on the
// account's normal balance. A posting on the account's normal side increases
// the balance; the opposite side decreases it. Used by both services and
// repositories so balance math stays in one place.
func SignedAmount(p domain.Posting, accountType domain.AccountType) (decimal.Decimal, error) {
	if !accountType.IsValid() {
		return decimal.Zero, fmt.Errorf("unknown account type %q for account %s", accountType, p.AccountID)
	}
	if p.Side == accountType.NormalBalance() {
		return p.Amount, nil
	}
	return p.Amount.Neg(), nil
}

// NetBalanceChanges folds a set of postings into the net signed change per
// account. accountTypes must contain every account referenced by postings.
func NetBalanceChanges(postings []domain.Posting, accountTypes map[string]domain.AccountType) (map[string]decimal.Decimal, error) {
	changes := make(map[string]decimal.Decimal, len(accountTypes))
	for _, p := range postings {
		accountType, ok := accountTypes[p.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account %s", p.AccountID)
		}
		signed, err := SignedAmount(p, accountType)
		if err != nil {
			return nil, err
		}
		changes[p.AccountID] = changes[p.AccountID].Add(signed)
	}
	return changes, nil
}
