package structs

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

var ErrInvalidPayload = errors.New("invalid transaction payload")

const (
	maxAmountLength = 40
	maxAmountDigits = 18
	maxAmountScale  = 4
)

// Amount accepts both JSON numbers and strings, ignoring thousands separators
// ("1,000.50").
type Amount struct {
	decimal.Decimal
}

func NewAmount(s string) Amount {
	return Amount{decimal.RequireFromString(s)}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.ReplaceAll(strings.Trim(string(b), `"`), ",", "")
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}

	if len(s) > maxAmountLength {
		return fmt.Errorf("%w: amount is too long", ErrInvalidPayload)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: amount %q is not a number", ErrInvalidPayload, string(b))
	}
	if err := checkAmount(d); err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// checkAmount bounds the integer digits and the scale. The exponent is checked
// first so that no rescaling ever touches an extreme exponent.
func checkAmount(d decimal.Decimal) error {
	exp := int(d.Exponent())
	if exp < -maxAmountDigits || exp > maxAmountDigits {
		return fmt.Errorf("%w: amount is out of range", ErrInvalidPayload)
	}
	if d.NumDigits()+exp > maxAmountDigits {
		return fmt.Errorf("%w: amount exceeds %d integer digits", ErrInvalidPayload, maxAmountDigits)
	}
	if exp < -maxAmountScale && !d.Round(maxAmountScale).Equal(d) {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidPayload, maxAmountScale)
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

type TransactionPayload struct {
	SourceAccountNumber      string `json:"sourceAccountNumber"`
	SourceBankCode           string `json:"sourceBankCode"`
	DestinationAccountNumber string `json:"destinationAccountNumber"`
	DestinationBankCode      string `json:"destinationBankCode"`
	Amount                   Amount `json:"amount"`
	Narration                string `json:"narration"`
	Category                 string `json:"category,omitempty"`
}

func (p TransactionPayload) Validate() error {
	required := []struct {
		name, value string
		max         int
	}{
		{"sourceAccountNumber", p.SourceAccountNumber, 10},
		{"sourceBankCode", p.SourceBankCode, 0},
		{"destinationAccountNumber", p.DestinationAccountNumber, 10},
		{"destinationBankCode", p.DestinationBankCode, 0},
		{"narration", p.Narration, 100},
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: missing field '%s'", ErrInvalidPayload, f.name)
		}
		if f.max > 0 && utf8.RuneCountInString(f.value) > f.max {
			return fmt.Errorf("%w: field '%s' exceeds %d characters", ErrInvalidPayload, f.name, f.max)
		}
	}

	if utf8.RuneCountInString(p.Category) > 50 {
		return fmt.Errorf("%w: field 'category' exceeds 50 characters", ErrInvalidPayload)
	}

	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: field 'amount' must be greater than zero", ErrInvalidPayload)
	}

	if err := checkAmount(p.Amount.Decimal); err != nil {
		return err
	}

	return nil
}

// Transaction is the record kept per idempotency key. SequenceNumber and
// TransactionID never change once reserved.
type Transaction struct {
	SequenceNumber int64              `json:"id"`
	TransactionID  string             `json:"reference"`
	Data           TransactionPayload `json:"data"`
	Status         TransactionStatus  `json:"status"`
	Endpoint       string             `json:"endpoint,omitempty"`
	FailureReason  string             `json:"failureReason,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	SettledAt      *time.Time         `json:"settledAt,omitempty"`
}

func (t Transaction) Settled() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}
