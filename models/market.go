package models

// IndicatorValue represents a single indicator value at a specific date
type IndicatorValue struct {
	Date  string
	Value float64
}
