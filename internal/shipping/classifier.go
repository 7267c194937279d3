// Package shipping decides whether an order needs a delivery address.
//
// Product metadata upstream is populated inconsistently, so each line item
// is classified by an ordered chain of rules: explicit digital flag, then
// product kind, then title keywords. The first rule that recognises the item
// wins; items no rule recognises are treated as physical.
package shipping

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/lexacademy/checkout/internal/models"
)

// Verdict is the classification of a single line item
type Verdict int

const (
	Physical Verdict = iota
	Digital
)

func (v Verdict) String() string {
	if v == Digital {
		return "digital"
	}
	return "physical"
}

// Rule inspects one item. ok is false when the rule has no opinion and the
// next rule in the chain should run.
type Rule func(item models.LineItem) (v Verdict, ok bool)

// DefaultDigitalKeywords are title fragments that mark a product as digital.
// "Exam" and "ข้อสอบ" are intentionally absent: printed exam compilations are
// physical books.
var DefaultDigitalKeywords = []string{"คอร์ส", "Course", "E-Book", "ebook"}

// ExplicitFlag trusts the product record's digital flag when it is set.
func ExplicitFlag(item models.LineItem) (Verdict, bool) {
	if item.IsDigital == nil {
		return Physical, false
	}
	if *item.IsDigital {
		return Digital, true
	}
	return Physical, true
}

// DigitalKind classifies courses and exams as digital.
func DigitalKind(item models.LineItem) (Verdict, bool) {
	switch item.Kind {
	case models.KindCourse, models.KindExam:
		return Digital, true
	}
	return Physical, false
}

// TitleKeywords returns a rule matching any keyword as a case-insensitive
// substring of the title.
func TitleKeywords(keywords ...string) Rule {
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			folded = append(folded, fold(kw))
		}
	}

	return func(item models.LineItem) (Verdict, bool) {
		title := fold(item.Title)
		for _, kw := range folded {
			if strings.Contains(title, kw) {
				return Digital, true
			}
		}
		return Physical, false
	}
}

// fold builds a fresh Caser per call; Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Classifier evaluates its rules in order with short-circuit on first match
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier from an explicit rule chain
func NewClassifier(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefaultClassifier creates the standard chain: flag, kind, keywords.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(ExplicitFlag, DigitalKind, TitleKeywords(DefaultDigitalKeywords...))
}

// Classify returns the verdict of the first rule with an opinion, or Physical.
func (c *Classifier) Classify(item models.LineItem) Verdict {
	for _, rule := range c.rules {
		if v, ok := rule(item); ok {
			return v
		}
	}
	return Physical
}

// RequiresShipping reports whether any item in the order is physical.
func (c *Classifier) RequiresShipping(items []models.LineItem) bool {
	for _, item := range items {
		if c.Classify(item) == Physical {
			return true
		}
	}
	return false
}
