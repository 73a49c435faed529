package discover

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy locates candidate listing hrefs on an index page
type Strategy struct {
	Name string
	Find func(doc *goquery.Document) []string
}

var (
	// itemHref is the loose pattern used to pick candidates before normalization
	itemHref = regexp.MustCompile(`/[a-z]{2}/[pa]/\d+`)

	scriptHref = regexp.MustCompile(`href=["']?([^"' >]+)`)
)

// DefaultStrategies is the ranked chain used on listing index pages
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "containers", Find: containerHrefs},
		{Name: "anchors", Find: anchorHrefs},
		{Name: "scripts", Find: scriptHrefs},
	}
}

// Locate runs strategies in order and returns the hrefs of the first one that
// finds anything. Later strategies are not attempted.
func Locate(doc *goquery.Document, strategies []Strategy) ([]string, string) {
	for _, s := range strategies {
		if hrefs := s.Find(doc); len(hrefs) > 0 {
			return hrefs, s.Name
		}
	}
	return nil, ""
}

// containerHrefs reads listing boxes: the nested anchor wins over the box's
// own linkref attribute
func containerHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("div.listingBox, div.listingBoxsPremium").Each(func(_ int, box *goquery.Selection) {
		if href, ok := box.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			hrefs = append(hrefs, href)
			return
		}
		if ref, ok := box.Attr("linkref"); ok && strings.TrimSpace(ref) != "" {
			hrefs = append(hrefs, ref)
		}
	})
	return hrefs
}

func anchorHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if itemHref.MatchString(href) {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

// scriptHrefs scans inline scripts that render listing boxes for href-like
// substrings
func scriptHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := s.Text()
		if !strings.Contains(body, "listingBox") {
			return
		}
		for _, m := range scriptHref.FindAllStringSubmatch(body, -1) {
			if itemHref.MatchString(m[1]) {
				hrefs = append(hrefs, m[1])
			}
		}
	})
	return hrefs
}
