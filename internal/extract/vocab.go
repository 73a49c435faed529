package extract

import (
	"regexp"
	"strings"
)

// Vocabulary maps one canonical output value to the lower-case terms that signal it
type Vocabulary struct {
	Canonical string
	Terms     []string
}

// Lookup tables are ordered: the first entry with a matching term wins.
var (
	// PropertyTypes is matched against the URL and the title
	PropertyTypes = []Vocabulary{
		{Canonical: "appartement", Terms: []string{"appartement"}},
		{Canonical: "maison", Terms: []string{"maison"}},
		{Canonical: "villa", Terms: []string{"villa"}},
		{Canonical: "terrain", Terms: []string{"terrain"}},
		{Canonical: "bureau", Terms: []string{"bureau"}},
		{Canonical: "studio", Terms: []string{"studio"}},
	}

	// Conditions is matched against tag labels
	Conditions = []Vocabulary{
		{Canonical: "Neuf", Terms: []string{"neuf", "nouveau"}},
		{Canonical: "Ancien", Terms: []string{"ancien"}},
		{Canonical: "Bon état", Terms: []string{"bon état"}},
		{Canonical: "À rénover", Terms: []string{"à rénover"}},
	}

	// Statuses is matched against tag labels
	Statuses = []Vocabulary{
		{Canonical: "À vendre", Terms: []string{"à vendre"}},
		{Canonical: "À louer", Terms: []string{"à louer"}},
		{Canonical: "Vendu", Terms: []string{"vendu"}},
		{Canonical: "Loué", Terms: []string{"loué"}},
	}

	// StatusURLSegments is the fallback when no tag yields a status
	StatusURLSegments = []Vocabulary{
		{Canonical: "À vendre", Terms: []string{"/a-vendre/"}},
		{Canonical: "À louer", Terms: []string{"/a-louer/"}},
	}

	// Amenity synonyms, checked in the description and the features list
	GardenTerms  = []string{"jardin", "verdoyant"}
	PoolTerms    = []string{"piscine"}
	KitchenTerms = []string{"cuisine équipée", "cuisine equipee"}

	// NeighborhoodKeywords trigger a description excerpt when the location has no district
	NeighborhoodKeywords = []string{"quartier", "secteur", "zone", "hay"}
)

// FeatureIcons maps each numeric feature to the icon class marking its block
var FeatureIcons = []struct {
	Field string
	Icon  string
}{
	{Field: "area", Icon: "icon-triangle"},
	{Field: "rooms", Icon: "icon-house-boxes"},
	{Field: "bedrooms", Icon: "icon-bed"},
	{Field: "bathrooms", Icon: "icon-bath"},
}

// ItemPath matches the canonical listing path /<locale>/<type-code>/<numeric-id>
var ItemPath = regexp.MustCompile(`/([a-z]{2})/([pa])/(\d+)`)

var (
	nonDigits = regexp.MustCompile(`[^\d]`)
	digitRun  = regexp.MustCompile(`\d+`)
)

// match returns the canonical value of the first entry with a term contained in
// any of the haystacks, which must already be lower-cased
func match(table []Vocabulary, haystacks ...string) (string, bool) {
	for _, v := range table {
		for _, term := range v.Terms {
			for _, h := range haystacks {
				if h != "" && strings.Contains(h, term) {
					return v.Canonical, true
				}
			}
		}
	}
	return "", false
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
