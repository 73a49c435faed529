package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Fixed selectors of the listing detail page, compiled once
var (
	selTitle       cascadia.Matcher = cascadia.MustCompile("h1.titleListing")
	selPrice       cascadia.Matcher = cascadia.MustCompile("h3.orangeTit")
	selLocation    cascadia.Matcher = cascadia.MustCompile("h2.greyTit")
	selDescription cascadia.Matcher = cascadia.MustCompile("div.blockDescription")
	selFeatures    cascadia.Matcher = cascadia.MustCompile("div.featuresList")
	selTags        cascadia.Matcher = cascadia.MustCompile("span.tag")
)

const featureContainer = "div.adDetailFeature"

// first returns the first element matching m, or an empty selection
func first(doc *goquery.Document, m cascadia.Matcher) *goquery.Selection {
	if len(doc.Nodes) == 0 {
		return doc.Selection.Slice(0, 0)
	}
	n := cascadia.Query(doc.Nodes[0], m)
	if n == nil {
		return doc.Selection.Slice(0, 0)
	}
	return doc.FindNodes(n)
}

// all returns every element matching m in document order
func all(doc *goquery.Document, m cascadia.Matcher) *goquery.Selection {
	if len(doc.Nodes) == 0 {
		return doc.Selection.Slice(0, 0)
	}
	return doc.FindNodes(cascadia.QueryAll(doc.Nodes[0], m)...)
}

// FlattenText returns the visible text of a selection: text nodes are
// whitespace-collapsed and joined by single spaces, script and style skipped.
func FlattenText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				parts = append(parts, s)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// textOr returns the flattened text of sel, or fallback when it is empty
func textOr(sel *goquery.Selection, fallback string) string {
	if sel.Length() == 0 {
		return fallback
	}
	if s := FlattenText(sel); s != "" {
		return s
	}
	return fallback
}
