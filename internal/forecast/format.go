package forecast

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatMoney renders v as dollars with thousands separators, e.g.
// "$1,523,412.77".
func FormatMoney(v float64) string {
	p := message.NewPrinter(language.English)
	if v < 0 {
		return p.Sprintf("-$%.2f", math.Abs(v))
	}
	return p.Sprintf("$%.2f", v)
}

// DateLayout is the format used for target dates and the today override.
const DateLayout = "2006-01-02"
