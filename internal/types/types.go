package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Direction tells on which side of the threshold an alert fires
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

var (
	ErrInvalidDirection = errors.New("direction must be 'above' or 'below'")
	ErrInvalidSymbol    = errors.New("symbol must be a short alphanumeric token")

	symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,20}$`)
)

// ParseDirection accepts "above" or "below" in any case
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Above:
		return Above, nil
	case Below:
		return Below, nil
	}
	return "", ErrInvalidDirection
}

// ParseSymbol uppercases s and checks it is a plausible ticker symbol
func ParseSymbol(s string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(symbol) {
		return "", errors.Wrapf(ErrInvalidSymbol, "symbol %q", s)
	}
	return symbol, nil
}

// Alert is a one-shot price threshold set by a user. It is compared by value.
type Alert struct {
	Symbol    string          `json:"symbol"`
	Direction Direction       `json:"direction"`
	Threshold decimal.Decimal `json:"threshold"`
}

// NewAlert builds an alert with the symbol uppercased
func NewAlert(symbol string, direction Direction, threshold decimal.Decimal) Alert {
	return Alert{
		Symbol:    strings.ToUpper(symbol),
		Direction: direction,
		Threshold: threshold,
	}
}

// Matches reports whether price has reached the threshold. Both bounds are inclusive.
func (a Alert) Matches(price decimal.Decimal) bool {
	switch a.Direction {
	case Above:
		return price.GreaterThanOrEqual(a.Threshold)
	case Below:
		return price.LessThanOrEqual(a.Threshold)
	}
	return false
}

// Equal compares alerts field by field, thresholds numerically
func (a Alert) Equal(other Alert) bool {
	return a.Symbol == other.Symbol &&
		a.Direction == other.Direction &&
		a.Threshold.Equal(other.Threshold)
}

// IsZero reports an alert that carries no symbol or direction
func (a Alert) IsZero() bool {
	return a.Symbol == "" || a.Direction == ""
}

func (a Alert) String() string {
	return fmt.Sprintf("%s %s €%s", a.Symbol, a.Direction, a.Threshold.String())
}

// Owner identifies the user an alert belongs to
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Handle is the display handle scheduled tasks are named after. Users without a
// username get a handle derived from their id.
func (o Owner) Handle() string {
	if o.Username != "" {
		return o.Username
	}
	return fmt.Sprintf("id%d", o.ID)
}
