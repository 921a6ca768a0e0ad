package mock

import "github.com/fwojciec/crestwatch"

var _ crestwatch.Formatter = (*Formatter)(nil)

// Formatter is a mock implementation of crestwatch.Formatter.
type Formatter struct {
	FormatFn func(set crestwatch.UpdateSet) (crestwatch.Payload, error)
}

func (f *Formatter) Format(set crestwatch.UpdateSet) (crestwatch.Payload, error) {
	return f.FormatFn(set)
}
