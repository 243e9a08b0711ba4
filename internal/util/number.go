package util

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrNotWhole = errors.New("not a whole number")

// ParseNumber parses a trimmed decimal cell.
func ParseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// ParseWholeNumber accepts integers and integral decimals such as "2023.0".
func ParseWholeNumber(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, ErrNotWhole
	}
	return int(v), nil
}
