package sheet

// Columns maps record fields to their column letters in the declaration
// template. The 12-column order is fixed by the template.
type Columns struct {
	CaseNumber     string
	PackageUnit    string
	ChineseName    string
	EnglishName    string
	QuantitySpec   string
	UnitPrice      string
	TotalPrice     string
	Volume         string
	GrossWeight    string
	Courier        string
	TrackingNumber string
	ReceiptDate    string
}

// Layout describes the destination declaration template: where the static
// header ends, where data rows begin, and which column holds which field.
// A layout is loaded once per session and shared read-only.
type Layout struct {
	// SheetName is the declaration sheet. When the workbook has no sheet
	// with this name, the first sheet is used.
	SheetName string
	// HeaderRows 1..HeaderRows are template content and never modified.
	HeaderRows int
	// DataStartRow is the first row shipment data may occupy.
	DataStartRow int
	Columns      Columns
	// TotalPriceFormula is the formula template for the total-price column,
	// with the row number substituted in. The column always holds a formula
	// referencing the same row's unit-price cell, never a literal.
	TotalPriceFormula string
}

// DefaultLayout returns the layout of the standard customs declaration
// template (环亚自行申报货物表).
func DefaultLayout() Layout {
	return Layout{
		SheetName:    "环亚客户自行申报货物表",
		HeaderRows:   8,
		DataStartRow: 9,
		Columns: Columns{
			CaseNumber:     "A",
			PackageUnit:    "B",
			ChineseName:    "C",
			EnglishName:    "D",
			QuantitySpec:   "E",
			UnitPrice:      "F",
			TotalPrice:     "G",
			Volume:         "H",
			GrossWeight:    "I",
			Courier:        "J",
			TrackingNumber: "K",
			ReceiptDate:    "L",
		},
		TotalPriceFormula: "=F%d",
	}
}

// CaseNumberForRow converts an absolute row number to the case number its
// record would carry.
func (l Layout) CaseNumberForRow(row int) int {
	return row - l.DataStartRow + 1
}
