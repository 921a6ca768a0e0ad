// Package slack formats update sets as Slack Block Kit webhook messages.
package slack

import (
	"strings"

	"github.com/fwojciec/crestwatch"
)

// Headline is the message's fallback text, shown in notifications.
const Headline = "Latest updates from Crestron :loudspeaker:"

// Block and text object types.
const (
	TypeSection = "section"
	TypeDivider = "divider"
	TypeContext = "context"
	TypeMrkdwn  = "mrkdwn"
)

// Message is an incoming-webhook message.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks"`
}

// Block is a layout block. Only the fields used by the block type are set.
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Fields   []Text `json:"fields,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Text is a text composition object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(s string) Text {
	return Text{Type: TypeMrkdwn, Text: s}
}

var _ crestwatch.Formatter = (*Formatter)(nil)

// Formatter renders update sets as Slack messages: an intro section, a
// divider and a header row, followed by a fields section and a context block
// per record.
type Formatter struct {
	sourceURL string
	strict    bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithSourceURL links the word "Crestron" in the intro to the listing page.
func WithSourceURL(u string) Option {
	return func(f *Formatter) {
		f.sourceURL = u
	}
}

// WithStrictKinds renders labels other than Firmware and Software with an
// unknown marker instead of the software marker.
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
	return f.Message(set), nil
}

// Message builds the message for set. The result has 3+2*len(set) blocks.
func (f *Formatter) Message(set crestwatch.UpdateSet) *Message {
	intro := Headline
	if f.sourceURL != "" {
		intro = "Latest updates from <" + f.sourceURL + "|Crestron> :loudspeaker:"
	}

	blocks := make([]Block, 0, 3+2*len(set))
	blocks = append(blocks,
		Block{Type: TypeSection, Text: &Text{Type: TypeMrkdwn, Text: intro}},
		Block{Type: TypeDivider},
		Block{Type: TypeSection, Fields: []Text{mrkdwn("*Name*"), mrkdwn("*Updated*")}},
	)

	for _, r := range set {
		blocks = append(blocks,
			Block{Type: TypeSection, Fields: []Text{
				mrkdwn("<" + escape(r.Link) + "|" + escape(r.Name) + ">"),
				mrkdwn(escape(r.Date)),
			}},
			Block{Type: TypeContext, Elements: []Text{
				mrkdwn(Marker(r.Classify(f.strict))),
			}},
		)
	}

	return &Message{Text: Headline, Blocks: blocks}
}

// Marker returns the icon and bold label for a classified kind.
func Marker(k crestwatch.Kind) string {
	switch k {
	case crestwatch.KindFirmware:
		return ":hammer:*Firmware*"
	case crestwatch.KindSoftware:
		return ":floppy_disk:*Software*"
	default:
		return ":grey_question:*Unknown*"
	}
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escape encodes the three characters Slack reserves for control sequences.
func escape(s string) string {
	return escaper.Replace(s)
}
