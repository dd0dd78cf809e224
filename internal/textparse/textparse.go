// Package textparse holds the small line-scanning and amount-parsing helpers
// the institution plugins share. Every institution's layout is different,
// but they all end up hunting for labeled lines and dollar amounts.
package textparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var amountClean = regexp.MustCompile(`[$,]`)

// ParseAmount converts an amount string as printed on statements into a
// decimal: "$1,234.56", "-$12.00", "(45.00)" for negatives, "1234.56".
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.Trim(s, "()")
	}
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	s = amountClean.ReplaceAllString(s, "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// FindLineStartsWith returns the index and content of the first line at or
// after start that begins with prefix.
func FindLineStartsWith(lines []string, prefix string, start int) (int, string, error) {
	for i := start; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], prefix) {
			return i, lines[i], nil
		}
	}
	return 0, "", fmt.Errorf("no line starting with %q", prefix)
}

// FindLineContains returns the index and content of the first line at or
// after start that contains substr.
func FindLineContains(lines []string, substr string, start int) (int, string, error) {
	for i := start; i < len(lines); i++ {
		if strings.Contains(lines[i], substr) {
			return i, lines[i], nil
		}
	}
	return 0, "", fmt.Errorf("no line containing %q", substr)
}

// FindLineRegex returns the index and content of the first line matching re.
func FindLineRegex(lines []string, re *regexp.Regexp) (int, string, error) {
	for i, line := range lines {
		if re.MatchString(line) {
			return i, line, nil
		}
	}
	return 0, "", fmt.Errorf("no line matching %s", re)
}

// AbsoluteDate resolves an mm/dd string against a statement date range.
// Statements frequently print transaction dates without a year; the right
// year is whichever lands the date inside (or nearest to) the range, which
// also handles ranges spanning a year boundary.
func AbsoluteDate(mmdd string, start, end time.Time) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(mmdd), "/")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid mm/dd date %q", mmdd)
	}
	var month, day int
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%d %d", &month, &day); err != nil {
		return time.Time{}, fmt.Errorf("invalid mm/dd date %q: %w", mmdd, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid mm/dd date %q", mmdd)
	}

	years := []int{start.Year(), end.Year(), start.Year() - 1}
	var best time.Time
	bestDist := time.Duration(-1)
	for _, year := range years {
		cand := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if !cand.Before(start) && !cand.After(end) {
			return cand, nil
		}
		dist := start.Sub(cand)
		if cand.After(end) {
			dist = cand.Sub(end)
		}
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best, nil
}
