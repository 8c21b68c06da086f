package models

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ASNNumber is the structured form of a bucket identifier such as "ASN0000042".
// It is formatted to the padded string only when stored or displayed.
type ASNNumber struct {
	Prefix string
	Number int64
}

// NewASNNumber builds an ASN number from its parts
func NewASNNumber(prefix string, number int64) ASNNumber {
	return ASNNumber{Prefix: prefix, Number: number}
}

// ParseASNNumber splits a stored identifier into its leading non-digit prefix and the
// numeric value obtained by stripping every non-digit character.
func ParseASNNumber(s string) (ASNNumber, error) {
	prefixEnd := strings.IndexFunc(s, unicode.IsDigit)
	if prefixEnd < 0 {
		return ASNNumber{}, fmt.Errorf("identifier %q holds no digits", s)
	}

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return ASNNumber{}, fmt.Errorf("identifier %q: %w", s, err)
	}

	return ASNNumber{Prefix: s[:prefixEnd], Number: n}, nil
}

// String formats the number as prefix + 7-digit zero-padded value
func (a ASNNumber) String() string {
	return fmt.Sprintf("%s%07d", a.Prefix, a.Number)
}

// Next returns the successor bucket number
func (a ASNNumber) Next() ASNNumber {
	return ASNNumber{Prefix: a.Prefix, Number: a.Number + 1}
}

// Add returns the bucket number n positions further
func (a ASNNumber) Add(n int64) ASNNumber {
	return ASNNumber{Prefix: a.Prefix, Number: a.Number + n}
}

// FormatLineNumber pads a 1-based line slot to the 5-digit line field
func FormatLineNumber(line int) string {
	return fmt.Sprintf("%05d", line)
}

// ParseLineNumber reads a stored line field back into its integer slot
func ParseLineNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
