package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printerFor returns a locale-aware printer for the given language code,
// falling back to English for unparseable codes.
func printerFor(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// FormatNumber renders n with the locale's digit grouping, e.g. 1234567.89
// becomes "1.234.567,89" for vi and "1,234,567.89" for en.
func FormatNumber(lang string, n float64) string {
	return printerFor(lang).Sprintf("%v", number.Decimal(n))
}

// FormatVND renders a Vietnamese dong amount with the locale's grouping and
// the dong sign, matching how the mobile client displays local currency.
func FormatVND(lang string, n float64) string {
	return printerFor(lang).Sprintf("%v ₫", number.Decimal(n))
}

// FormatUSDT renders a stablecoin amount with the locale's grouping.
func FormatUSDT(lang string, n float64) string {
	return printerFor(lang).Sprintf("%v USDT", number.Decimal(n))
}
