package extractor

// RawFieldSet is the output of one extraction pass over a single shipment
// line. Every field is optional; the empty string means the extractor could
// not find the field in the input.
type RawFieldSet struct {
	ProductNameZH  string `json:"product_name_zh"`
	QuantitySpec   string `json:"quantity_spec"`
	UnitPrice      string `json:"unit_price"`
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
	WarehouseDate  string `json:"warehouse_date"`
}

// Empty reports whether no field at all was populated.
func (r *RawFieldSet) Empty() bool {
	return r.ProductNameZH == "" &&
		r.QuantitySpec == "" &&
		r.UnitPrice == "" &&
		r.Courier == "" &&
		r.TrackingNumber == "" &&
		r.WarehouseDate == ""
}

// Viable reports whether the field set carries enough information to build a
// declaration row. A line that yields neither a product name nor a price is
// rejected as unparseable.
func (r *RawFieldSet) Viable() bool {
	return r.ProductNameZH != "" || r.UnitPrice != ""
}
