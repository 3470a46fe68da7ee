package features

var baseColumns = []string{
	"Holiday_Flag", "Temperature", "Fuel_Price",
	"CPI", "Unemployment", "Year",
	"Month", "Week", "Day", "DayOfWeek",
	"Is_Weekend",
}

var lagColumns = []string{
	"Weekly_Sales_lag1", "Weekly_Sales_lag2", "Weekly_Sales_lag3",
}

var (
	ensembleColumns  = buildColumns(true)
	regressorColumns = buildColumns(false)
)

// DateColumn names the forecast date column of the time-series frame.
const DateColumn = "ds"

// MonthColumn returns the one-hot column name for a month name.
func MonthColumn(name string) string {
	return "MonthName_" + name
}

// EnsembleColumns returns the 26 columns the tree ensemble is fit on, in order.
func EnsembleColumns() []string {
	return append([]string(nil), ensembleColumns...)
}

// RegressorColumns returns the 23 regressor columns of the time-series model,
// in order.
func RegressorColumns() []string {
	return append([]string(nil), regressorColumns...)
}

func buildColumns(withLags bool) []string {
	cols := make([]string, 0, len(baseColumns)+len(MonthNames)+len(lagColumns))
	cols = append(cols, baseColumns...)
	for _, m := range MonthNames {
		cols = append(cols, MonthColumn(m))
	}
	if withLags {
		cols = append(cols, lagColumns...)
	}
	return cols
}
