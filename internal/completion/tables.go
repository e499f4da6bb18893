package completion

// Static lookup tables for field completion. They are immutable, initialized
// once, and shared read-only by every completion engine.

// courierMapping normalizes a courier alias to its canonical name.
type courierMapping struct {
	alias     string
	canonical string
}

// courierTable maps courier-name fragments to the canonical company name.
// Matching is by substring, so both "中通" and "中通快递" resolve to the same
// canonical form, which keeps normalization idempotent.
var courierTable = []courierMapping{
	{alias: "中通", canonical: "中通快递"},
	{alias: "顺丰", canonical: "顺丰快递"},
	{alias: "圆通", canonical: "圆通快递"},
	{alias: "申通", canonical: "申通快递"},
	{alias: "韵达", canonical: "韵达快递"},
	{alias: "百世", canonical: "百世快递"},
	{alias: "德邦", canonical: "德邦快递"},
	{alias: "京东", canonical: "京东快递"},
	{alias: "菜鸟", canonical: "菜鸟快递"},
	{alias: "EMS", canonical: "EMS"},
}

// translationEntry pairs a Chinese product-name fragment with its English
// customs name.
type translationEntry struct {
	zh string
	en string
}

// translationTable resolves English product names by substring lookup.
// Longer keys come first so 折叠按摩床 wins over 按摩床.
var translationTable = []translationEntry{
	{zh: "折叠按摩床", en: "Folding Massage Table"},
	{zh: "电子产品", en: "Electronic Products"},
	{zh: "按摩床", en: "Massage Table"},
	{zh: "装饰品", en: "Decorations"},
	{zh: "化妆品", en: "Cosmetics"},
	{zh: "地板", en: "Flooring"},
	{zh: "家具", en: "Furniture"},
	{zh: "服装", en: "Clothing"},
	{zh: "玩具", en: "Toys"},
	{zh: "工具", en: "Tools"},
	{zh: "厨具", en: "Kitchenware"},
}

// unitTokens are the quantity units the engine recognizes in a spec like
// "1托" or "2箱".
var unitTokens = []string{
	"托", "箱", "个", "件", "张", "套", "台", "只", "条", "包", "袋", "瓶", "罐",
}

// defaultUnit is combined with bare or missing counts.
const defaultUnit = "件"
