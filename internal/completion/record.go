package completion

// Record is a fully resolved shipment record, ready to be mapped onto a
// declaration row. Every field is populated (empty string permitted); records
// are values and never mutated after construction.
type Record struct {
	// CaseNumber is unique within a batch and continues the numbering of
	// rows already present in the destination document.
	CaseNumber int `json:"case_number"`

	ProductNameZH string `json:"product_name_zh"`
	// ProductNameEN is resolved from the translation table, empty when no
	// entry matches. Never fabricated.
	ProductNameEN string  `json:"product_name_en"`
	QuantitySpec  string  `json:"quantity_spec"`
	UnitPrice     float64 `json:"unit_price"`
	// TotalPriceFormula references this record's own unit-price cell, e.g.
	// "=F9". The total column never holds a literal so price edits propagate.
	TotalPriceFormula string `json:"total_price_formula"`
	Courier           string `json:"courier"`
	TrackingNumber    string `json:"tracking_number"`
	// ReceiptDate is canonical "MM/DD".
	ReceiptDate string `json:"receipt_date"`
}
