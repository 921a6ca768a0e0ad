package crestwatch

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Kind is the type label of an update as presented by the source.
// Records keep the raw label; Classify maps it onto a presentation variant.
type Kind string

// Kind constants.
const (
	KindFirmware Kind = "Firmware"
	KindSoftware Kind = "Software"
	KindUnknown  Kind = "Unknown"
)

// Record is one entry in the vendor's update listing.
// Any field may be empty when the markup was missing. Link is always an
// absolute URL; relative paths are resolved at extraction time.
type Record struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Link string `json:"link"`
	Kind Kind   `json:"type"`
}

// Classify maps the record's raw label onto KindFirmware, KindSoftware or
// KindUnknown. Only the exact label "Firmware" selects firmware. Every other
// label is software, unless strict is set, in which case only the exact label
// "Software" is software and the rest are unknown.
func (r Record) Classify(strict bool) Kind {
	switch {
	case r.Kind == KindFirmware:
		return KindFirmware
	case !strict, r.Kind == KindSoftware:
		return KindSoftware
	default:
		return KindUnknown
	}
}

// UpdateSet is the ordered sequence of records produced by one extraction.
// Order follows the source document and is significant: it is the source's
// own recency ranking.
type UpdateSet []Record

// Equal reports whether s and other hold the same records in the same order.
// A nil set equals an empty one.
func (s UpdateSet) Equal(other UpdateSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Fingerprint returns a hex xxHash of the set's JSON encoding.
// Equal sets have equal fingerprints.
func (s UpdateSet) Fingerprint() string {
	if s == nil {
		s = UpdateSet{}
	}
	// Marshalling a slice of string-only structs cannot fail.
	b, _ := json.Marshal(s)
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}
