package util

import "github.com/Rhymond/go-money"

// FormatCents renders an integer amount of cents as a BRL currency string,
// matching what the mobile client displays.
func FormatCents(cents int64) string {
	return money.New(cents, money.BRL).Display()
}
