package extractor

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Pattern rules for the deterministic extractor. Each field is matched
// independently and the first match wins.
var (
	priceRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:美金|[$元])`)
	quantityRe = regexp.MustCompile(`(\d+|[一二三四五六七八九十])(托|箱|个|件|张|套|台|只|条|包|袋|瓶|罐)`)
	trackingRe = regexp.MustCompile(`\d{10,}`)

	// Chinese calendar dates first, then ISO-like forms, then month/day
	// with the year omitted.
	dateRes = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}[日号]`),
		regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
		regexp.MustCompile(`\d{1,2}月\d{1,2}[日号]`),
	}

	segmentRe       = regexp.MustCompile(`[，,、；;]`)
	productPrefixRe = regexp.MustCompile(`^(?:货物|商品|产品)[:：]?`)
)

// courierNames are the courier tokens the rule extractor recognizes inside a
// line. Normalization to canonical names happens later in completion.
var courierNames = []string{
	"中通", "顺丰", "圆通", "申通", "韵达", "百世", "德邦", "京东", "菜鸟", "EMS",
}

// metaPrefixes mark first segments that are metadata rather than a product
// name, e.g. a line that begins with the tracking-number label.
var metaPrefixes = []string{"入仓日期", "快递单号", "快递", "单号", "单价"}

// RuleExtractor is the deterministic fallback extractor. It applies lexical
// pattern rules per field and never calls out of process.
type RuleExtractor struct {
	logger *zap.Logger
}

// NewRuleExtractor creates a new rule-based extractor.
func NewRuleExtractor(logger *zap.Logger) *RuleExtractor {
	return &RuleExtractor{logger: logger}
}

// Extract applies the pattern rules to a single shipment line. The context is
// accepted to satisfy the Extractor interface; rule extraction never blocks.
func (e *RuleExtractor) Extract(_ context.Context, line string) (*RawFieldSet, error) {
	line = strings.TrimSpace(line)
	fields := &RawFieldSet{}

	// Spans already claimed by price, quantity and date matches. Tracking
	// candidates overlapping a claimed span are skipped.
	var claimed [][]int

	if loc := priceRe.FindStringSubmatchIndex(line); loc != nil {
		fields.UnitPrice = line[loc[0]:loc[1]]
		claimed = append(claimed, []int{loc[0], loc[1]})
	}

	if m := quantityRe.FindStringSubmatchIndex(line); m != nil {
		count := arabicNumeral(line[m[2]:m[3]])
		unit := line[m[4]:m[5]]
		fields.QuantitySpec = count + unit
		claimed = append(claimed, []int{m[0], m[1]})
	}

	for _, re := range dateRes {
		if loc := re.FindStringIndex(line); loc != nil {
			fields.WarehouseDate = line[loc[0]:loc[1]]
			claimed = append(claimed, loc)
			break
		}
	}

	for _, name := range courierNames {
		if strings.Contains(line, name) {
			fields.Courier = name
			break
		}
	}

	for _, loc := range trackingRe.FindAllStringIndex(line, -1) {
		if !overlapsAny(loc, claimed) {
			fields.TrackingNumber = line[loc[0]:loc[1]]
			break
		}
	}

	fields.ProductNameZH = e.carveProductName(line)

	if fields.Empty() {
		return nil, ErrNoFieldsExtracted
	}
	return fields, nil
}

// carveProductName takes the first comma-delimited segment of the line and
// strips the quantity, price and label noise from it. Quantity and price are
// removed before the name is accepted, so overlapping text such as
// "地板1托30$一张" still yields "地板".
func (e *RuleExtractor) carveProductName(line string) string {
	segments := segmentRe.Split(line, -1)
	if len(segments) == 0 {
		return ""
	}

	seg := strings.TrimSpace(segments[0])
	for _, prefix := range metaPrefixes {
		if strings.HasPrefix(seg, prefix) {
			return ""
		}
	}

	seg = productPrefixRe.ReplaceAllString(seg, "")
	seg = priceRe.ReplaceAllString(seg, "")
	seg = quantityRe.ReplaceAllString(seg, "")
	seg = strings.Trim(seg, " \t:：。.")

	if utf8.RuneCountInString(seg) < 2 {
		return ""
	}
	return seg
}

// arabicNumeral converts a single Chinese numeral to its Arabic form.
// Arabic input passes through unchanged.
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

func overlapsAny(loc []int, claimed [][]int) bool {
	for _, c := range claimed {
		if loc[0] < c[1] && c[0] < loc[1] {
			return true
		}
	}
	return false
}
