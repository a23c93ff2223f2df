package dto

import (
	"time"

	"github.com/ingmontoya/tavira-ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReferenceRequest identifies the business event behind a transaction.
type ReferenceRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

// ThirdPartyRequest attributes an entry to an apartment or supplier.
type ThirdPartyRequest struct {
	Type string `json:"type" binding:"required,oneof=APARTMENT SUPPLIER"`
	ID   string `json:"id" binding:"required"`
}

// CreateEntryRequest is one leg of a transaction to be posted. Exactly one of
// debitAmount and creditAmount must be positive.
type CreateEntryRequest struct {
	AccountID    string             `json:"accountID" binding:"required"`
	DebitAmount  decimal.Decimal    `json:"debitAmount"`
	CreditAmount decimal.Decimal    `json:"creditAmount"`
	Description  string             `json:"description"`
	ThirdParty   *ThirdPartyRequest `json:"thirdParty,omitempty"`
}

// CreateTransactionRequest is the payload for posting a transaction.
type CreateTransactionRequest struct {
	Date        time.Time            `json:"date" binding:"required"`
	Description string               `json:"description" binding:"required"`
	Reference   *ReferenceRequest    `json:"reference,omitempty"`
	Entries     []CreateEntryRequest `json:"entries" binding:"required,min=2,dive"`
}

// ToDomainReference maps the request reference onto the domain tagged union.
func (r *ReferenceRequest) ToDomainReference() *domain.Reference {
	if r == nil {
		return nil
	}
	return &domain.Reference{Type: domain.ReferenceType(r.Type), ID: r.ID}
}

// ToDomainThirdParty maps the request third party onto the domain type.
func (r *ThirdPartyRequest) ToDomainThirdParty() *domain.ThirdParty {
	if r == nil {
		return nil
	}
	return &domain.ThirdParty{Type: domain.ThirdPartyType(r.Type), ID: r.ID}
}

// TransactionResponse is the transaction header returned to callers.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Status        string          `json:"status"`
	TotalDebits   decimal.Decimal `json:"totalDebits"`
	TotalCredits  decimal.Decimal `json:"totalCredits"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// ToTransactionResponse converts a domain transaction to its response DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Date:          txn.Date,
		Description:   txn.Description,
		Status:        string(txn.Status),
		TotalDebits:   txn.TotalDebits(),
		TotalCredits:  txn.TotalCredits(),
		CreatedAt:     txn.CreatedAt,
		CreatedBy:     txn.CreatedBy,
	}
}

// BalanceResponse is the signed balance of an account over a window.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
	From      *time.Time      `json:"from,omitempty"`
	To        *time.Time      `json:"to,omitempty"`
}
