package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/newsharvester/helpers"
)

// Document wraps a parsed page and exposes ordered-fallback extraction
type Document struct {
	doc *goquery.Document
}

// Parse builds a Document from an HTML string
func Parse(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// Find returns every element matching selector
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// FirstMatchText returns the trimmed text of the first selector that yields any
func (d *Document) FirstMatchText(selectors []string) string {
	return FirstText(d.doc.Selection, selectors)
}

// FirstMatchAttr returns the trimmed attr of the first selector that yields one
func (d *Document) FirstMatchAttr(selectors []string, attr string) string {
	return FirstAttr(d.doc.Selection, selectors, attr)
}

// FirstMatch applies rules to the whole page
func (d *Document) FirstMatch(rules []Rule) string {
	return FirstRule(d.doc.Selection, rules)
}

// FirstText is FirstMatchText scoped to s
func FirstText(s *goquery.Selection, selectors []string) string {
	rules := make([]Rule, 0, len(selectors))
	for _, sel := range selectors {
		rules = append(rules, Rule{Selector: sel})
	}
	return FirstRule(s, rules)
}

// FirstAttr is FirstMatchAttr scoped to s
func FirstAttr(s *goquery.Selection, selectors []string, attr string) string {
	rules := make([]Rule, 0, len(selectors))
	for _, sel := range selectors {
		rules = append(rules, Rule{Selector: sel, Attr: attr})
	}
	return FirstRule(s, rules)
}

// FirstRule walks rules strictly in order and returns the first non-empty accepted value
func FirstRule(s *goquery.Selection, rules []Rule) string {
	for _, rule := range rules {
		if v := applyRule(s, rule); v != "" {
			return v
		}
	}
	return ""
}

func applyRule(s *goquery.Selection, rule Rule) string {
	var found string
	s.Find(rule.Selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		v := valueOf(el, rule.Attr)
		if v == "" || (rule.Accept != nil && !rule.Accept(v)) {
			return true
		}
		found = v
		return false
	})
	return found
}

func valueOf(el *goquery.Selection, attr string) string {
	if attr == "" {
		return helpers.CollapseSpace(el.Text())
	}
	v, _ := el.Attr(attr)
	return strings.TrimSpace(v)
}
