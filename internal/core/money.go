// Package core provides the bot's domain types plus money and date
// parsing utilities shared by the services and the conversation layer.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// The result is always positive cents. Returns an error for invalid
// formats, negative values, or zero amounts.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; half-up rounding on the third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParsePlanAmount parses a budget-plan value as typed by the user.
// A trailing "%" selects a PERCENTAGE plan (amount stored in basis
// points); otherwise the plan is FIXED (amount in cents). An optional
// leading "R$" currency marker is stripped.
//
//	"500"    -> FIXED, 50000 cents
//	"49,90"  -> FIXED, 4990 cents
//	"R$ 120" -> FIXED, 12000 cents
//	"10%"    -> PERCENTAGE, 1000 basis points
func ParsePlanAmount(s string) (PlanType, Money, error) {
	s = strings.TrimSpace(s)
	planType := PlanFixed
	if strings.HasSuffix(s, "%") {
		planType = PlanPercentage
		s = strings.TrimSuffix(s, "%")
	}
	upper := strings.ToUpper(strings.TrimSpace(s))
	if strings.HasPrefix(upper, "R$") {
		s = strings.TrimSpace(s[len("R$"):])
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return "", Money{}, err
	}
	if planType == PlanPercentage && cents > 100*100 {
		// A percentage target above 100% is always a typo.
		return "", Money{}, ErrInvalidAmount
	}
	return planType, Money{Cents: cents}, nil
}

// Reais returns the value as a float64 for display purposes only.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount as "R$ 12,34".
func (m Money) Format() string {
	return strings.ReplaceAll(fmt.Sprintf("R$ %.2f", m.Reais()), ".", ",")
}

// FormatPercent renders a basis-point amount as "10%" or "12,50%".
func (m Money) FormatPercent() string {
	if m.Cents%100 == 0 {
		return fmt.Sprintf("%d%%", m.Cents/100)
	}
	return strings.ReplaceAll(fmt.Sprintf("%.2f%%", float64(m.Cents)/100.0), ".", ",")
}

// FormatPlanAmount renders a plan value according to its type.
func FormatPlanAmount(t PlanType, m Money) string {
	if t == PlanPercentage {
		return m.FormatPercent()
	}
	return m.Format()
}
