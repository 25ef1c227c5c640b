package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func parseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// ExtractForm scrapes every <input> and <select> in document order.
func ExtractForm(body string) (Form, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return Form{}, err
	}
	return extractForm(doc), nil
}

func extractForm(doc *goquery.Document) Form {
	form := Form{
		Inputs:  []Input{},
		Selects: []Select{},
	}

	doc.Find("input").Each(func(_ int, sel *goquery.Selection) {
		form.Inputs = append(form.Inputs, Input{
			Name:  sel.AttrOr("name", ""),
			Kind:  ParseInputKind(sel.AttrOr("type", "")),
			Value: sel.AttrOr("value", ""),
		})
	})

	doc.Find("select").Each(func(_ int, sel *goquery.Selection) {
		options := []string{}
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			options = append(options, opt.AttrOr("value", ""))
		})
		form.Selects = append(form.Selects, NewSelect(sel.AttrOr("name", ""), options))
	})

	return form
}
