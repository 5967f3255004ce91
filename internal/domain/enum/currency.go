package enum

import "strings"

// Currency names one of the soft-currency balances held on a user
type Currency string

const (
	CurrencyHorrorCoins Currency = "horror_coins"
	CurrencySouls       Currency = "souls"
	CurrencyBloodGems   Currency = "blood_gems"
)

// ParseCurrency normalises raw and reports whether it is a known balance
func ParseCurrency(raw string) (Currency, bool) {
	c := Currency(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CurrencyHorrorCoins, CurrencySouls, CurrencyBloodGems:
		return c, true
	}
	return c, false
}

func (c Currency) String() string {
	return string(c)
}
