package view

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	colorUp   = "#10b981"
	colorDown = "#f43f5e"

	ToneUp   = "emerald"
	ToneDown = "rose"
)

// Fixed formats v with two decimals and no sign prefix.
func Fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Signed formats v with two decimals and a leading "+" when positive.
func Signed(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func Percent(v float64) string {
	return Signed(v) + "%"
}

// INR groups the integer part the Indian way (12,34,567.80).
func INR(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		lead := len(head) % 2
		if lead > 0 {
			b.WriteString(head[:lead])
		}
		for i := lead; i < len(head); i += 2 {
			if b.Len() > 0 && !(neg && b.Len() == 1) {
				b.WriteByte(',')
			}
			b.WriteString(head[i : i+2])
		}
		b.WriteByte(',')
		b.WriteString(tail)
	} else {
		b.WriteString(intPart)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func Rupees(v float64) string {
	return "₹" + INR(v)
}

func tone(v float64) string {
	if v >= 0 {
		return ToneUp
	}
	return ToneDown
}
