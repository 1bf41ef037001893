package dto

import (
	"time"

	"github.com/eduledger/school_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePostingRequest is one debit or credit line of a draft entry.
type CreatePostingRequest struct {
	AccountID string             `json:"accountID" binding:"required"`
	Amount    decimal.Decimal    `json:"amount" binding:"required"`
	Side      domain.PostingSide `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Memo      string             `json:"memo"` // Optional
}

// CreateEntryRequest defines a draft journal entry submitted for posting.
// The draft carries no identifiers or sequence; those are assigned on commit.
type CreateEntryRequest struct {
	Date         time.Time              `json:"date" binding:"required"`
	Description  string                 `json:"description" binding:"required"`
	CurrencyCode string                 `json:"currencyCode" binding:"required,len=3"`
	Postings     []CreatePostingRequest `json:"postings" binding:"required,min=2,dive"`
}

// PostingResponse defines the data returned for a posting line.
type PostingResponse struct {
	PostingID      string             `json:"postingID"`
	AccountID      string             `json:"accountID"`
	Amount         decimal.Decimal    `json:"amount"`
	Side           domain.PostingSide `json:"side"`
	Memo           string             `json:"memo,omitempty"`
	RunningBalance decimal.Decimal    `json:"runningBalance"`
}

// EntryResponse defines the data returned for a committed journal entry.
type EntryResponse struct {
	EntryID          string                     `json:"entryID"`
	TenantID         string                     `json:"tenantID"`
	PeriodID         string                     `json:"periodID"`
	SequenceNo       int64                      `json:"sequenceNo"`
	Date             time.Time                  `json:"date"`
	Description      string                     `json:"description"`
	CurrencyCode     string                     `json:"currencyCode"`
	Status           domain.EntryStatus         `json:"status"`
	Amount           decimal.Decimal            `json:"amount"`
	OriginalEntryID  *string                    `json:"originalEntryID,omitempty"`
	ReversingEntryID *string                    `json:"reversingEntryID,omitempty"`
	Postings         []PostingResponse          `json:"postings,omitempty"`
	ResultingBalances map[string]decimal.Decimal `json:"resultingBalances,omitempty"` // Balance per touched account after commit
	CreatedAt        time.Time                  `json:"createdAt"`
	CreatedBy        string                     `json:"createdBy"`
}

// ToEntryResponse converts a domain.JournalEntry to an EntryResponse DTO.
// ResultingBalances is derived from the last posting per account, in
// sequence order within the entry.
func ToEntryResponse(entry *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          entry.EntryID,
		TenantID:         entry.TenantID,
		PeriodID:         entry.PeriodID,
		SequenceNo:       entry.SequenceNo,
		Date:             entry.EntryDate,
		Description:      entry.Description,
		CurrencyCode:     entry.CurrencyCode,
		Status:           entry.Status,
		Amount:           entry.Amount,
		OriginalEntryID:  entry.OriginalEntryID,
		ReversingEntryID: entry.ReversingEntryID,
		CreatedAt:        entry.CreatedAt,
		CreatedBy:        entry.CreatedBy,
	}

	if len(entry.Postings) > 0 {
		resp.Postings = make([]PostingResponse, len(entry.Postings))
		resp.ResultingBalances = make(map[string]decimal.Decimal)
		for i, p := range entry.Postings {
			resp.Postings[i] = PostingResponse{
				PostingID:      p.PostingID,
				AccountID:      p.AccountID,
				Amount:         p.Amount,
				Side:           p.Side,
				Memo:           p.Memo,
				RunningBalance: p.RunningBalance,
			}
			resp.ResultingBalances[p.AccountID] = p.RunningBalance
		}
	}

	return resp
}

// ToEntryResponses converts a slice of entries.
func ToEntryResponses(entries []domain.JournalEntry) []EntryResponse {
	res := make([]EntryResponse, len(entries))
	for i := range entries {
		res[i] = ToEntryResponse(&entries[i])
	}
	return res
}

// ListEntriesParams defines query parameters for listing entries.
type ListEntriesParams struct {
	PeriodID  string  `form:"periodID" binding:"required"`
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of entries with a continuation token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
