package models

// ReferencePair maps a transaction description to its category. It is also
// the row shape of the reference store file.
type ReferencePair struct {
	Description string `csv:"Description"`
	Category    string `csv:"Category"`
}

// BatchResult is the outcome of classifying one batch of descriptions.
// Valid is false when any part of the response could not be used; the pairs
// that did parse are kept either way.
type BatchResult struct {
	Valid bool
	Pairs []ReferencePair
}
