package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Weekly  PeriodType = "weekly"
	Monthly PeriodType = "monthly"
)

type (
	// PeriodType scopes a budget or an analytics window.
	PeriodType string

	// Money is an amount in Korean won. The won has no subdivision, so the
	// smallest currency unit is the won itself.
	Money struct {
		Won int64
	}

	// Transaction is a confirmed purchase at a place on a calendar date.
	// Date and Place are immutable after creation.
	Transaction struct {
		ID          string    `json:"id,omitempty"`
		UserID      string    `json:"user_id"`
		Date        Date      `json:"date"`
		Place       string    `json:"place"`
		TotalAmount int64     `json:"total_amount"`
		ReceiptURL  string    `json:"receipt_url"`
		CreatedAt   time.Time `json:"created_at,omitempty"`
	}

	// TransactionItem is one purchased product line. A transaction owns its
	// items; deleting the transaction removes them.
	TransactionItem struct {
		ID            string  `json:"id,omitempty"`
		TransactionID string  `json:"transaction_id,omitempty"`
		ProductName   string  `json:"product_name"`
		Quantity      int64   `json:"amount"`
		UnitPrice     int64   `json:"price_per_unit"`
		TotalPrice    int64   `json:"total_price"`
		CategoryID    *string `json:"category_id"`
		IsManualEntry bool    `json:"is_manual_entry"`
	}

	Category struct {
		ID     string `json:"id,omitempty"`
		UserID string `json:"user_id"`
		Name   string `json:"name"`
	}

	// Budget is a spending ceiling for one period window, optionally scoped
	// to a single category. A nil CategoryID means a whole-period budget.
	// At most one budget may exist per (user, period type, start date,
	// category); the service layer enforces this with a read before write.
	Budget struct {
		ID         string     `json:"id,omitempty"`
		UserID     string     `json:"user_id"`
		PeriodType PeriodType `json:"period_type"`
		StartDate  Date       `json:"start_date"`
		CategoryID *string    `json:"category_id"`
		Amount     int64      `json:"amount"`
	}

	// CandidateItem is a parser guess at one receipt line.
	CandidateItem struct {
		ProductName  string `json:"productName"`
		Quantity     int64  `json:"amount"`
		PricePerUnit int64  `json:"pricePerUnit"`
	}

	// CandidateTransaction is the parser's best-effort draft. It is never
	// stored directly; the user confirms or edits it first.
	CandidateTransaction struct {
		Place       string          `json:"place"`
		Date        Date            `json:"date"`
		Items       []CandidateItem `json:"items"`
		TotalAmount int64           `json:"totalAmount"`
	}
)

var (
	ErrEmptyPlace       = errors.New("empty place")
	ErrEmptyProductName = errors.New("empty product name")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidPeriod    = errors.New("invalid period type")
	ErrTotalMismatch    = errors.New("total price does not equal quantity times unit price")
)

func (p PeriodType) Validate() error {
	switch p {
	case Weekly, Monthly:
		return nil
	}
	return ErrInvalidPeriod
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Place) == "" {
		return ErrEmptyPlace
	}
	if len(t.Place) > 200 {
		return errors.New("place too long (max 200 characters)")
	}
	if t.TotalAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i TransactionItem) Validate() error {
	if strings.TrimSpace(i.ProductName) == "" {
		return ErrEmptyProductName
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i.UnitPrice < 0 {
		return ErrInvalidUnitPrice
	}
	if i.TotalPrice != i.Quantity*i.UnitPrice {
		return ErrTotalMismatch
	}
	return nil
}

// Recompute derives TotalPrice from quantity and unit price. The stored
// total is never trusted as an independent source of truth.
func (i *TransactionItem) Recompute() {
	i.TotalPrice = i.Quantity * i.UnitPrice
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.PeriodType.Validate(); err != nil {
		return err
	}
	if err := b.StartDate.Validate(); err != nil {
		return err
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ItemsTotal sums quantity times unit price over the candidate items.
func (c CandidateTransaction) ItemsTotal() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.Quantity * it.PricePerUnit
	}
	return sum
}
