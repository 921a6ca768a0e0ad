// Package msteams formats update sets as Microsoft Teams connector
// MessageCards.
package msteams

import "github.com/fwojciec/crestwatch"

// Card defaults.
const (
	CardType    = "MessageCard"
	CardContext = "https://schema.org/extensions"
	Summary     = "Latest updates from Crestron"
	ThemeColor  = "0078D7"
)

// MessageCard is a legacy actionable message card.
type MessageCard struct {
	Type       string    `json:"@type"`
	Context    string    `json:"@context"`
	Summary    string    `json:"summary"`
	ThemeColor string    `json:"themeColor"`
	Sections   []Section `json:"sections"`
}

// Section groups facts.
type Section struct {
	Facts []Fact `json:"facts"`
}

// Fact is a name/value pair rendered as a table row.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var _ crestwatch.Formatter = (*Formatter)(nil)

// Formatter renders update sets as a single-section card with three facts
// per record.
type Formatter struct {
	strict bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithStrictKinds renders labels other than Firmware and Software as
// Unknown instead of Software.
func WithStrictKinds(strict bool) Option {
	return func(f *Formatter) {
		f.strict = strict
	}
}

// NewFormatter creates a new Formatter.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements crestwatch.Formatter. It never fails.
func (f *Formatter) Format(set crestwatch.UpdateSet) (crestwatch.Payload, error) {
	return f.Card(set), nil
}

// Card builds a new card for set. Cards are never shared between calls.
func (f *Formatter) Card(set crestwatch.UpdateSet) *MessageCard {
	facts := make([]Fact, 0, 3*len(set))
	for _, r := range set {
		facts = append(facts,
			Fact{Name: "Name:", Value: "[" + r.Name + "](" + r.Link + ")"},
			Fact{Name: "Date Released:", Value: r.Date},
			Fact{Name: "Type:", Value: "**" + string(r.Classify(f.strict)) + "**"},
		)
	}

	return &MessageCard{
		Type:       CardType,
		Context:    CardContext,
		Summary:    Summary,
		ThemeColor: ThemeColor,
		Sections:   []Section{{Facts: facts}},
	}
}
