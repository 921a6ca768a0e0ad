package crestwatch

// Extractor parses the listing page into update records.
type Extractor interface {
	// Extract returns one record per result container, in document order.
	// It never fails: missing fields degrade to empty strings and
	// unparseable input yields an empty set.
	Extract(html string) UpdateSet
}
