package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var trPrinter = message.NewPrinter(language.Turkish)

// FormatTRY renders an amount the way the shop prints it: Turkish digit
// grouping, no fraction digits, lira sign in front ("₺65.000").
func FormatTRY(amount int64) string {
	if amount < 0 {
		return "-₺" + trPrinter.Sprintf("%d", -amount)
	}
	return "₺" + trPrinter.Sprintf("%d", amount)
}

// FormatThousands groups the digits of raw form input with dots ("65000" ->
// "65.000"), discarding every non-digit character.
func FormatThousands(raw string) string {
	digits := onlyDigits(raw)
	if digits == "" {
		return ""
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// NormalizeRate turns rate input such as "0,97" or "1.0.5" into a single
// decimal-point number string ("0.97", "1.05").
func NormalizeRate(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	first, rest, found := strings.Cut(cleaned, ".")
	if !found {
		return cleaned
	}
	return first + "." + strings.ReplaceAll(rest, ".", "")
}

// ParseCash reads a cash price typed into the form. Dots are accepted as
// thousands separators ("65.000"); anything else but digits is rejected.
func ParseCash(raw string) (int64, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "₺"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
		}
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ".", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return n, nil
}

// ParseRate reads a rate typed into the form ("0,97", "1.05").
func ParseRate(raw string) (decimal.Decimal, error) {
	normalized := NormalizeRate(strings.TrimSpace(raw))
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
