package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidRate      = errors.New("money: conversion rate must be positive")
)

// Currency is a validated 3-letter uppercase ISO 4217 code. Using a distinct
// type keeps unvalidated strings out of arithmetic paths.
type Currency string

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return Currency(c), nil
}

// MustCurrency parses a currency code and panics on failure; for fixtures and tests.
func MustCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(fmt.Sprintf("money: bad currency %q", code))
	}
	return c
}

func (c Currency) String() string { return string(c) }

// Money keeps amounts in integer minor units to avoid floating point issues.
type Money struct {
	Amount   int64    `json:"amount" bson:"amount"`
	Currency Currency `json:"currency" bson:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	c, err := ParseCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: c}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Neg returns the negated amount preserving currency.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// MulInt multiplies the amount by an integer factor.
func (m Money) MulInt(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// MulFloat multiplies the amount by a float factor, rounding half-up to the
// nearest minor unit.
func (m Money) MulFloat(factor float64) Money {
	return Money{Amount: RoundHalfUp(float64(m.Amount) * factor), Currency: m.Currency}
}

// ConvertOp selects how an FX rate is applied during conversion.
type ConvertOp int

const (
	// ConvertMul applies a direct rate: amount * rate.
	ConvertMul ConvertOp = iota
	// ConvertDiv applies an inverse rate: amount / rate.
	ConvertDiv
)

// Convert re-denominates the amount into target using the given rate and
// operation, rounding half-up to the nearest minor unit.
func (m Money) Convert(target Currency, rate float64, op ConvertOp) (Money, error) {
	if rate <= 0 {
		return Money{}, ErrInvalidRate
	}
	out := float64(m.Amount) * rate
	if op == ConvertDiv {
		out = float64(m.Amount) / rate
	}
	return Money{Amount: RoundHalfUp(out), Currency: target}, nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// RoundHalfUp rounds to the nearest integer with ties going away from zero.
func RoundHalfUp(v float64) int64 {
	return int64(math.Round(v))
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
