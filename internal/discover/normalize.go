package discover

import (
	"net/url"
	"regexp"

	urlutil "github.com/law-makers/immocrawl/internal/utils/url"
	"github.com/law-makers/immocrawl/pkg/models"
)

// CanonicalPath is the accepted listing path: /<locale>/<type-code>/<numeric-id>
var CanonicalPath = regexp.MustCompile(`^/[a-z]{2}/[pa]/\d+`)

// Normalizer turns raw hrefs into ListingLinks on a fixed site origin
type Normalizer struct {
	Origin  string
	Pattern *regexp.Regexp
}

// Normalize resolves href against the origin, strips query and fragment and
// accepts only paths matching the pattern
func (n Normalizer) Normalize(href string) (models.ListingLink, bool) {
	abs, err := urlutil.Canonicalize(n.Origin, href)
	if err != nil {
		return "", false
	}

	pattern := n.Pattern
	if pattern == nil {
		pattern = CanonicalPath
	}
	u, err := url.Parse(abs)
	if err != nil || !pattern.MatchString(u.Path) {
		return "", false
	}
	return abs, true
}

// NormalizeAll normalizes hrefs, dropping rejects and in-page duplicates
func (n Normalizer) NormalizeAll(hrefs []string) []models.ListingLink {
	seen := make(map[string]struct{}, len(hrefs))
	out := make([]models.ListingLink, 0, len(hrefs))
	for _, h := range hrefs {
		link, ok := n.Normalize(h)
		if !ok {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}
