package domain

// Currency represents a supported currency and its minor-unit precision.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // ISO 4217 code, Primary Key
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int32  `json:"precision"` // Number of decimal places (e.g. 2 for USD)
	AuditFields
}
