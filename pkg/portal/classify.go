package portal

import (
	"slices"
	"strings"
	"titechportal/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

type PageKind int

const (
	PAGE_UNKNOWN PageKind = iota
	PAGE_PASSWORD
	PAGE_OTP_METHOD
	PAGE_MATRIX
	PAGE_RESOURCE_LIST
)

func (k PageKind) String() string {
	switch k {
	case PAGE_PASSWORD:
		return "password"
	case PAGE_OTP_METHOD:
		return "otp method"
	case PAGE_MATRIX:
		return "matrix"
	case PAGE_RESOURCE_LIST:
		return "resource list"
	default:
		return "unknown"
	}
}

type RuleScope int

const (
	// SCOPE_BODY matches against the serialized inner markup of <body>
	SCOPE_BODY RuleScope = iota
	// SCOPE_TITLE matches against the serialized inner markup of <title>
	SCOPE_TITLE
)

func (s RuleScope) selector() string {
	if s == SCOPE_TITLE {
		return "title"
	}
	return "body"
}

// Rule marks a page as `Kind` when `Marker` is contained in the markup of `Scope`.
// Markers are matched against serialized markup, so entities must be written
// the way the serializer escapes them (ex. "&amp;").
type Rule struct {
	Kind   PageKind
	Scope  RuleScope
	Marker string
}

// DefaultRules are the markers of the current portal copy, if the portal
// changes its wording only this table needs to change.
var DefaultRules = []Rule{
	{Kind: PAGE_PASSWORD, Scope: SCOPE_BODY, Marker: "Please input your account &amp; password."},
	{Kind: PAGE_OTP_METHOD, Scope: SCOPE_BODY, Marker: "Select Label for OTP"},
	{Kind: PAGE_OTP_METHOD, Scope: SCOPE_BODY, Marker: "Token Authentication"},
	{Kind: PAGE_MATRIX, Scope: SCOPE_BODY, Marker: "Matrix Authentication"},
	{Kind: PAGE_RESOURCE_LIST, Scope: SCOPE_TITLE, Marker: "リソース メニュー"},
}

// Classifier decides what kind of portal page a body is.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return Classifier{rules: rules}
}

// page is a parsed body with the scopes that rules look at, serialized once.
type page struct {
	doc    *goquery.Document
	scopes map[RuleScope]string
}

func (c Classifier) parse(body string) (page, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return page{}, err
	}
	p := page{doc: doc, scopes: map[RuleScope]string{}}
	for _, scope := range []RuleScope{SCOPE_BODY, SCOPE_TITLE} {
		markup, err := htmlutil.InnerHtml(doc, scope.selector())
		if err != nil {
			return page{}, err
		}
		p.scopes[scope] = markup
	}
	return p, nil
}

func (c Classifier) matches(p page, kind PageKind) bool {
	for _, r := range c.rules {
		if r.Kind != kind {
			continue
		}
		if strings.Contains(p.scopes[r.Scope], r.Marker) {
			return true
		}
	}
	return false
}

// Is reports whether the body is a page of the given kind. An error is only
// returned if the body could not be parsed.
func (c Classifier) Is(body string, kind PageKind) (bool, error) {
	p, err := c.parse(body)
	if err != nil {
		return false, err
	}
	return c.matches(p, kind), nil
}

// Classify returns every kind the body matches, in rule table order without
// duplicates. An empty result means the page is unknown.
func (c Classifier) Classify(body string) ([]PageKind, error) {
	p, err := c.parse(body)
	if err != nil {
		return nil, err
	}
	var kinds []PageKind
	for _, r := range c.rules {
		if slices.Contains(kinds, r.Kind) {
			continue
		}
		if c.matches(p, r.Kind) {
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds, nil
}

// Diagnosis is the closest known page kind of an unrecognized page.
type Diagnosis struct {
	Kind       PageKind
	Marker     string
	Similarity float64
	// Heading is the page text that was compared against the markers.
	Heading string
}

// Diagnose finds the rule whose marker is most similar to the title or any
// heading of the page. It is meant for reporting when the portal copy drifts
// away from DefaultRules, not for classification.
func (c Classifier) Diagnose(body string) (Diagnosis, error) {
	p, err := c.parse(body)
	if err != nil {
		return Diagnosis{}, err
	}

	var candidates []string
	p.doc.Find("title, h1, h2, h3, th, legend").Each(func(_ int, sel *goquery.Selection) {
		text := htmlutil.CleanText(htmlutil.GetText(sel.Get(0)))
		if text != "" {
			candidates = append(candidates, text)
		}
	})

	best := Diagnosis{Kind: PAGE_UNKNOWN}
	for _, r := range c.rules {
		marker := strings.ReplaceAll(r.Marker, "&amp;", "&")
		for _, candidate := range candidates {
			sim := matchr.JaroWinkler(strings.ToLower(candidate), strings.ToLower(marker), false)
			if sim > best.Similarity {
				best = Diagnosis{
					Kind:       r.Kind,
					Marker:     r.Marker,
					Similarity: sim,
					Heading:    candidate,
				}
			}
		}
	}
	return best, nil
}
