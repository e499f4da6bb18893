package extractor

import "errors"

// Domain errors for shipment line extraction

var (
	// ErrUnparseableInput means neither the semantic nor the rule extractor
	// could populate a usable field set for the line.
	ErrUnparseableInput = errors.New("no shipment fields could be extracted from input")

	// ErrNoFieldsExtracted is returned by the rule extractor when not a
	// single pattern matched.
	ErrNoFieldsExtracted = errors.New("no extraction rule matched")

	// ErrOracleUnavailable covers every semantic-extraction failure: timeout,
	// exhausted retries, or a response that fails schema validation. It never
	// reaches callers of the fallback wrapper.
	ErrOracleUnavailable = errors.New("semantic extraction oracle unavailable")
)
