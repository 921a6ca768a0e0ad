package mock

import "github.com/fwojciec/crestwatch"

var _ crestwatch.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of crestwatch.Extractor.
type Extractor struct {
	ExtractFn func(html string) crestwatch.UpdateSet
}

func (e *Extractor) Extract(html string) crestwatch.UpdateSet {
	return e.ExtractFn(html)
}
