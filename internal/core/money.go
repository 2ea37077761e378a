// Package core holds the domain model of the tracker: users, transactions,
// wallet amounts and the history filter language.
//
// This file contains parsing of user-supplied monetary amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a form value into an exact decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Anything
// that does not parse as a finite number, and any negative value, yields
// ErrInvalidAmount: wallet balances never go below zero, so there is no
// legitimate negative input anywhere in the application.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount is ParseAmount restricted to strictly positive values,
// used for transaction amounts where zero makes no sense.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
