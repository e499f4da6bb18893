package completion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/extractor"
)

var (
	quantitySpecRe = regexp.MustCompile(`(\d+|[一二三四五六七八九十])(托|箱|个|件|张|套|台|只|条|包|袋|瓶|罐)`)
	bareCountRe    = regexp.MustCompile(`^\d+$`)
	nonNumericRe   = regexp.MustCompile(`[^0-9.]`)

	canonicalDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	dateExprRes     = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})[日号]`),
		regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`),
		regexp.MustCompile(`(\d{1,2})月(\d{1,2})[日号]`),
	}
)

// Engine resolves a raw field set into a complete record. Each completion
// step produces a canonical value; a field that cannot be resolved to one
// aborts the whole record with a field-tagged error.
type Engine struct {
	dataStartRow int
	formulaTmpl  string
	now          func() time.Time
	logger       *zap.Logger
}

// NewEngine creates a completion engine. dataStartRow and totalPriceFormula
// come from the destination template layout so the engine can fix each
// record's row-bound formula at completion time.
func NewEngine(dataStartRow int, totalPriceFormula string, logger *zap.Logger) *Engine {
	return &Engine{
		dataStartRow: dataStartRow,
		formulaTmpl:  totalPriceFormula,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock returns a copy of the engine using the given clock. Tests use it
// to pin the silent receipt-date default.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// Complete resolves every field of the raw set. The case number is
// nextCaseNumber+batchIndex: monotonic in input order, continuing from the
// document's existing rows.
func (e *Engine) Complete(raw *extractor.RawFieldSet, batchIndex, nextCaseNumber int) (*Record, error) {
	caseNumber := nextCaseNumber + batchIndex
	row := e.dataStartRow + caseNumber - 1

	price, err := parsePrice(raw.UnitPrice)
	if err != nil {
		return nil, &FieldError{Field: "unit_price", Err: err}
	}

	return &Record{
		CaseNumber:        caseNumber,
		ProductNameZH:     raw.ProductNameZH,
		ProductNameEN:     translateProductName(raw.ProductNameZH),
		QuantitySpec:      normalizeQuantity(raw.QuantitySpec, raw.ProductNameZH),
		UnitPrice:         price,
		TotalPriceFormula: fmt.Sprintf(e.formulaTmpl, row),
		Courier:           NormalizeCourier(raw.Courier),
		TrackingNumber:    strings.TrimSpace(raw.TrackingNumber),
		ReceiptDate:       e.normalizeReceiptDate(raw.WarehouseDate),
	}, nil
}

// parsePrice strips everything but digits and the decimal point, then parses
// the remainder. An absent price resolves to zero; a present but non-numeric
// one is an error.
func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	cleaned := nonNumericRe.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	return price, nil
}

// normalizeQuantity resolves the quantity spec to "count+unit" form. When the
// spec is missing it is inferred from the product name; when nothing can be
// inferred the record defaults to a single generic unit.
func normalizeQuantity(spec, productName string) string {
	spec = strings.TrimSpace(spec)

	if m := quantitySpecRe.FindStringSubmatch(spec); m != nil {
		return arabicNumeral(m[1]) + m[2]
	}
	if bareCountRe.MatchString(spec) {
		return spec + defaultUnit
	}
	if m := quantitySpecRe.FindStringSubmatch(productName); m != nil {
		return arabicNumeral(m[1]) + m[2]
	}
	return "1" + defaultUnit
}

// translateProductName looks the Chinese name up in the static translation
// table, longest key first. Unmatched names resolve to the empty string.
func translateProductName(zh string) string {
	if zh == "" {
		return ""
	}
	for _, entry := range translationTable {
		if strings.Contains(zh, entry.zh) {
			return entry.en
		}
	}
	return ""
}

// NormalizeCourier maps a courier name fragment to the canonical company
// name. Matching is case-insensitive substring; unrecognized input passes
// through verbatim rather than being rejected.
func NormalizeCourier(courier string) string {
	courier = strings.TrimSpace(courier)
	if courier == "" {
		return ""
	}
	lowered := strings.ToLower(courier)
	for _, m := range courierTable {
		if strings.Contains(lowered, strings.ToLower(m.alias)) {
			return m.canonical
		}
	}
	return courier
}

// normalizeReceiptDate parses a free-form date expression into "MM/DD". An
// unparseable or absent date silently defaults to the current date.
func (e *Engine) normalizeReceiptDate(raw string) string {
	raw = strings.TrimSpace(raw)

	if m := canonicalDateRe.FindStringSubmatch(raw); m != nil {
		if formatted, ok := formatMonthDay(m[1], m[2]); ok {
			return formatted
		}
	}
	for i, re := range dateExprRes {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		var month, day string
		if i == len(dateExprRes)-1 {
			// Year omitted; the current year is assumed.
			month, day = m[1], m[2]
		} else {
			month, day = m[2], m[3]
		}
		if formatted, ok := formatMonthDay(month, day); ok {
			return formatted
		}
	}

	now := e.now()
	if raw != "" {
		e.logger.Debug("Unparseable warehouse date, defaulting to today",
			zap.String("raw", raw))
	}
	return fmt.Sprintf("%02d/%02d", int(now.Month()), now.Day())
}

func formatMonthDay(monthStr, dayStr string) (string, bool) {
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d", month, day), true
}

func arabicNumeral(s string) string {
	numerals := map[string]string{
		"一": "1", "二": "2", "三": "3", "四": "4", "五": "5",
		"六": "6", "七": "7", "八": "8", "九": "9", "十": "10",
	}
	if n, ok := numerals[s]; ok {
		return n
	}
	return s
}
