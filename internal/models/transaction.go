// Package models provides the data structures used throughout the application.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells whether money came in or went out.
type TransactionType string

const (
	Credit TransactionType = "C"
	Debit  TransactionType = "D"
)

// IsValid reports whether t is Credit or Debit.
func (t TransactionType) IsValid() bool {
	return t == Credit || t == Debit
}

// Transaction is the canonical record every input layout is normalized into.
// Only Category changes after normalization.
type Transaction struct {
	SourceFile  string
	Date        time.Time // calendar date, UTC midnight
	Type        TransactionType
	Category    string // empty until categorized
	Description string
	Amount      decimal.Decimal
}

// NewTransaction builds a transaction whose amount sign agrees with its type:
// credits are non-negative and debits non-positive.
func NewTransaction(source string, date time.Time, txType TransactionType, description string, amount decimal.Decimal) (Transaction, error) {
	switch txType {
	case Credit:
		amount = amount.Abs()
	case Debit:
		amount = amount.Abs().Neg()
	default:
		return Transaction{}, fmt.Errorf("invalid transaction type %q", txType)
	}
	return Transaction{
		SourceFile:  source,
		Date:        date,
		Type:        txType,
		Description: description,
		Amount:      amount,
	}, nil
}

// SignConsistent reports whether the amount sign matches the type.
func (t Transaction) SignConsistent() bool {
	switch t.Type {
	case Credit:
		return !t.Amount.IsNegative()
	case Debit:
		return !t.Amount.IsPositive()
	default:
		return false
	}
}

// IsCategorized reports whether a category has been assigned.
func (t Transaction) IsCategorized() bool {
	return t.Category != ""
}
