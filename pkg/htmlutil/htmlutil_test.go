package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestInnerHtml(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><head><title>リソース メニュー</title></head><body><p>a &amp; b</p></body></html>`,
	))
	require.NoError(t, err)

	title, err := InnerHtml(doc, "title")
	require.NoError(t, err)
	require.Equal(t, "リソース メニュー", title)

	body, err := InnerHtml(doc, "body")
	require.NoError(t, err)
	require.Equal(t, "<p>a &amp; b</p>", body)

	missing, err := InnerHtml(doc, "table")
	require.NoError(t, err)
	require.Equal(t, "", missing)
}

func TestGetTextAndClean(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<div>  Matrix\n\n  <b>Authentication</b>\t</div>",
	))
	require.NoError(t, err)

	text := GetText(doc.Find("div").Nodes[0])
	require.Equal(t, "Matrix Authentication", CleanText(text))
}
