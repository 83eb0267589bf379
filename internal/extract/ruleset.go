package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// PreName is reserved for the pre-step of a RuleSet and cannot be used as a
// field name.
const PreName = "pre"

// Rule derives the value of one output field. Rules only read doc, they may
// freely read and write the shared context.
type Rule[C any] func(doc *goquery.Document, ctx *C) (any, error)

type Field[C any] struct {
	Name string
	Rule Rule[C]
}

// RuleSet is an ordered list of fields plus an optional pre-step.
//
// Pre runs before any field and only exists to fill the shared context, it
// does not produce output. C is allocated fresh for every extraction.
type RuleSet[C any] struct {
	Pre    func(doc *goquery.Document, ctx *C) error
	Fields []Field[C]
}

// NoContext is the context of rule sets whose fields share nothing.
type NoContext struct{}

// Validate rejects field names that are empty, reserved or duplicated.
func (r RuleSet[C]) Validate() error {
	seen := make(map[string]struct{}, len(r.Fields))
	for i, f := range r.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("field %d has no name", i)
		case f.Name == PreName:
			return fmt.Errorf("field name %q is reserved", PreName)
		case f.Rule == nil:
			return fmt.Errorf("field %q has no rule", f.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
