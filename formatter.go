package crestwatch

import (
	"slices"
	"strings"
)

// Payload is a fully formatted, channel-specific message body.
// Payloads are JSON-serialisable.
type Payload any

// Formatter renders an UpdateSet into a channel-specific payload.
// Formatting is deterministic: the same set always yields the same payload.
// An empty set yields a well-formed payload with zero entries.
type Formatter interface {
	Format(set UpdateSet) (Payload, error)
}

// FormatterRegistry selects a Formatter by channel kind.
type FormatterRegistry struct {
	formatters map[ChannelKind]Formatter
}

// NewFormatterRegistry creates an empty FormatterRegistry.
func NewFormatterRegistry() *FormatterRegistry {
	return &FormatterRegistry{formatters: make(map[ChannelKind]Formatter)}
}

// Register adds a formatter for a channel kind.
// If a formatter is already registered for the kind, it is replaced.
func (r *FormatterRegistry) Register(kind ChannelKind, f Formatter) {
	r.formatters[kind] = f
}

// Get returns the formatter for kind, or nil if none is registered.
func (r *FormatterRegistry) Get(kind ChannelKind) Formatter {
	return r.formatters[kind]
}

// Format renders set with the formatter registered for kind.
// Returns EINVALID if no formatter is registered.
func (r *FormatterRegistry) Format(kind ChannelKind, set UpdateSet) (Payload, error) {
	f, ok := r.formatters[kind]
	if !ok {
		return nil, Errorf(EINVALID, "no formatter for channel kind %q", kind)
	}
	return f.Format(set)
}

// List returns registered channel kinds in sorted order.
func (r *FormatterRegistry) List() []ChannelKind {
	kinds := make([]ChannelKind, 0, len(r.formatters))
	for k := range r.formatters {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// FormatSummary formats a set as plain text for terminal output, one record
// per line. Missing names fall back to the link.
func FormatSummary(set UpdateSet) string {
	if len(set) == 0 {
		return ""
	}

	lines := make([]string, 0, len(set))
	for _, r := range set {
		name := r.Name
		if name == "" {
			name = r.Link
		}
		line := "- [" + string(r.Classify(false)) + "] " + name
		if r.Date != "" {
			line += " (" + r.Date + ")"
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
