package utils

import (
	"fmt"
	"math/big"
)

// Monetary amounts are carried as decimal strings of base units through
// every layer. They never pass through a float.

// ParseAmount parses a non-negative base-unit amount.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	return v, nil
}

// SumAmounts adds a list of base-unit amount strings.
func SumAmounts(values []string) (*big.Int, error) {
	total := new(big.Int)
	for _, s := range values {
		v, err := ParseAmount(s)
		if err != nil {
			return nil, err
		}
		total.Add(total, v)
	}
	return total, nil
}

// AmountGTE reports whether a >= b, both base-unit amount strings.
func AmountGTE(a, b string) (bool, error) {
	av, err := ParseAmount(a)
	if err != nil {
		return false, err
	}
	bv, err := ParseAmount(b)
	if err != nil {
		return false, err
	}
	return av.Cmp(bv) >= 0, nil
}
