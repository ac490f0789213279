package models

// Supplier is a canonical payee record the categorizer matches bank
// descriptions against. Account, when set, is the preferred categorization
// target for the supplier's transactions.
type Supplier struct {
	Name     string `json:"name"`
	Supplies string `json:"supplies"`
	Account  string `json:"account,omitempty"`
}
