// Package pricing derives the display prices of a phone from its cash price
// and two rate factors.
//
// Two conventions exist and they are not compatible with each other. A
// deployment selects exactly one:
//
//	multiplicative: price = round(cash * rate), rate > 1   (1.05 = +5%)
//	divisive:       price = round(cash / rate), 0 < rate < 1 (0.97 => ~+3.1%)
//
// Under both conventions the cash price is the floor of the derived prices.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Convention names the formula used to derive prices.
type Convention string

const (
	Multiplicative Convention = "multiplicative"
	Divisive       Convention = "divisive"
)

var (
	ErrUnknownConvention = errors.New("UNKNOWN_PRICING_CONVENTION")
	ErrRateOutOfRange    = errors.New("RATE_OUT_OF_RANGE")
	ErrNegativePrice     = errors.New("NEGATIVE_PRICE")
	ErrInvalidAmount     = errors.New("INVALID_AMOUNT")
)

var one = decimal.NewFromInt(1)

// Prices holds the three display prices in whole currency units.
type Prices struct {
	Cash          int64 `json:"cash"`
	SinglePayment int64 `json:"singlePayment"`
	Installment   int64 `json:"installment"`
}

// ParseConvention maps a configuration value to a Convention.
func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case Multiplicative, Divisive:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownConvention, s)
	}
}

// Calculator derives prices under a single convention.
type Calculator struct {
	convention Convention
}

// NewCalculator returns a Calculator for the given convention.
func NewCalculator(convention Convention) (*Calculator, error) {
	if convention != Multiplicative && convention != Divisive {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConvention, convention)
	}
	return &Calculator{convention: convention}, nil
}

// Convention returns the convention this calculator applies.
func (c *Calculator) Convention() Convention {
	return c.convention
}

// DefaultRates returns the form defaults for new phones under this convention.
func (c *Calculator) DefaultRates() (single, installment decimal.Decimal) {
	if c.convention == Divisive {
		return decimal.RequireFromString("0.97"), decimal.RequireFromString("0.93")
	}
	return decimal.RequireFromString("1.05"), decimal.RequireFromString("1.15")
}

// ValidateRate reports whether rate lies in the domain of the convention.
func (c *Calculator) ValidateRate(rate decimal.Decimal) error {
	switch c.convention {
	case Multiplicative:
		if !rate.GreaterThan(one) {
			return fmt.Errorf("%w: %s must be greater than 1", ErrRateOutOfRange, rate)
		}
	case Divisive:
		if !rate.IsPositive() || !rate.LessThan(one) {
			return fmt.Errorf("%w: %s must be between 0 and 1", ErrRateOutOfRange, rate)
		}
	}
	return nil
}

// Validate checks a full set of pricing inputs.
func (c *Calculator) Validate(cash int64, single, installment decimal.Decimal) error {
	if cash < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePrice, cash)
	}
	if err := c.ValidateRate(single); err != nil {
		return fmt.Errorf("single payment rate: %w", err)
	}
	if err := c.ValidateRate(installment); err != nil {
		return fmt.Errorf("installment rate: %w", err)
	}
	return nil
}

// Derive computes the display prices. Inputs are validated first so the
// result is never below the cash price.
func (c *Calculator) Derive(cash int64, single, installment decimal.Decimal) (Prices, error) {
	if err := c.Validate(cash, single, installment); err != nil {
		return Prices{}, err
	}
	base := decimal.NewFromInt(cash)
	return Prices{
		Cash:          cash,
		SinglePayment: c.apply(base, single),
		Installment:   c.apply(base, installment),
	}, nil
}

func (c *Calculator) apply(base, rate decimal.Decimal) int64 {
	var v decimal.Decimal
	if c.convention == Divisive {
		// 16 digits keeps the half-unit boundary exact for realistic prices.
		v = base.DivRound(rate, 16)
	} else {
		v = base.Mul(rate)
	}
	return v.Round(0).IntPart()
}
