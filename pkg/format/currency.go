// Package format renders monetary amounts for a given locale.
package format

import (
	"github.com/iwvelando/household-budget/pkg/constants"
	"github.com/iwvelando/household-budget/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter prints amounts with the grouping and decimal separators of one
// locale.
type Formatter struct {
	printer *message.Printer
}

// New returns a formatter for the given BCP 47 tag. An empty or unparseable
// tag falls back to the default locale.
func New(locale string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.MustParse(constants.DefaultLocale)
	}
	return Formatter{printer: message.NewPrinter(tag)}
}

// Currency returns the amount with two decimals and the euro sign, e.g.
// "1.234,56 €" in German or "1,234.56 €" in English.
func (f Formatter) Currency(amount float64) string {
	return f.printer.Sprintf("%.2f %s", normalize(amount), constants.CurrencySymbol)
}

// Percent returns a percentage with two decimals, e.g. "5,80 %".
func (f Formatter) Percent(pct float64) string {
	return f.printer.Sprintf("%.2f %%", normalize(pct))
}

// normalize keeps rounding noise like -0.001 from printing as "-0.00".
func normalize(amount float64) float64 {
	if mathutil.Round(amount) == 0 {
		return 0
	}
	return amount
}
