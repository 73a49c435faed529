// Package extract turns a listing detail page into a PropertyRecord.
//
// Every field is recovered by an independent heuristic over the page markup.
// A field whose heuristic finds nothing holds models.Sentinel; only markup
// that cannot be parsed at all fails the whole extraction.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/immocrawl/pkg/models"
)

// ErrUnparsable is returned when markup cannot be parsed into a document
var ErrUnparsable = errors.New("markup cannot be parsed")

// Extractor builds PropertyRecords. It holds no mutable state and is safe
// for concurrent use.
type Extractor struct {
	Amenities models.AmenityStyle
}

// New creates an Extractor rendering amenity flags with style
func New(style models.AmenityStyle) *Extractor {
	return &Extractor{Amenities: style}
}

// Extract parses markup fetched from sourceURL into a record
func (e *Extractor) Extract(markup []byte, sourceURL string) (models.PropertyRecord, error) {
	if len(bytes.TrimSpace(markup)) == 0 {
		return models.PropertyRecord{}, fmt.Errorf("%w: empty document", ErrUnparsable)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return models.PropertyRecord{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	return e.FromDocument(doc, sourceURL), nil
}

// FromDocument extracts a record from an already parsed document
func (e *Extractor) FromDocument(doc *goquery.Document, sourceURL string) models.PropertyRecord {
	rec := models.NewSentinelRecord(sourceURL)

	rec.ID = ExtractID(sourceURL)
	rec.Title = textOr(first(doc, selTitle), models.Sentinel)
	rec.Price = price(first(doc, selPrice))
	rec.Location = textOr(first(doc, selLocation), models.Sentinel)

	features := numericFeatures(doc)
	rec.Area = features["area"]
	rec.Rooms = features["rooms"]
	rec.Bedrooms = features["bedrooms"]
	rec.Bathrooms = features["bathrooms"]

	description := textOr(first(doc, selDescription), "")
	if description != "" {
		rec.Description = description
	}

	rec.Type = propertyType(sourceURL, rec.Title)

	tags := tagLabels(doc)
	if v, ok := firstTagMatch(tags, Conditions); ok {
		rec.PropertyState = v
	}
	rec.Status = status(tags, sourceURL)

	featuresText := strings.ToLower(textOr(first(doc, selFeatures), ""))
	descLower := strings.ToLower(description)
	rec.Garden = e.Amenities.Render(containsAny(descLower, GardenTerms) || containsAny(featuresText, GardenTerms))
	rec.Pool = e.Amenities.Render(containsAny(descLower, PoolTerms) || containsAny(featuresText, PoolTerms))
	rec.EquippedKitchen = e.Amenities.Render(containsAny(descLower, KitchenTerms) || containsAny(featuresText, KitchenTerms))

	rec.Neighborhood = neighborhood(rec.Location, description)

	return rec
}

// ExtractID returns the numeric id segment of a canonical listing URL
func ExtractID(url string) string {
	m := ItemPath.FindStringSubmatch(url)
	if m == nil {
		return models.Sentinel
	}
	return m[3]
}

func price(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return models.Sentinel
	}
	if digits := nonDigits.ReplaceAllString(FlattenText(sel), ""); digits != "" {
		return digits
	}
	return models.Sentinel
}

// numericFeatures reads each feature block: icon marker, its container, the
// adjacent span, first run of digits
func numericFeatures(doc *goquery.Document) map[string]string {
	out := make(map[string]string, len(FeatureIcons))
	for _, f := range FeatureIcons {
		out[f.Field] = models.Sentinel

		icon := doc.Find("i." + f.Icon).First()
		if icon.Length() == 0 {
			continue
		}
		span := icon.Closest(featureContainer).Find("span").First()
		if span.Length() == 0 {
			continue
		}
		if n := digitRun.FindString(FlattenText(span)); n != "" {
			out[f.Field] = n
		}
	}
	return out
}

func propertyType(url, title string) string {
	lowerTitle := ""
	if title != models.Sentinel {
		lowerTitle = strings.ToLower(title)
	}
	if v, ok := match(PropertyTypes, strings.ToLower(url), lowerTitle); ok {
		return v
	}
	return models.Sentinel
}

// tagLabels returns the lower-cased text of every tag label in document order
func tagLabels(doc *goquery.Document) []string {
	sel := all(doc, selTags)
	labels := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.ToLower(FlattenText(s)))
	})
	return labels
}

// firstTagMatch scans tags in order; the first tag matching any entry wins
func firstTagMatch(tags []string, table []Vocabulary) (string, bool) {
	for _, tag := range tags {
		if v, ok := match(table, tag); ok {
			return v, true
		}
	}
	return "", false
}

func status(tags []string, url string) string {
	if v, ok := firstTagMatch(tags, Statuses); ok {
		return v
	}
	if v, ok := match(StatusURLSegments, strings.ToLower(url)); ok {
		return v
	}
	return models.Sentinel
}

// neighborhood prefers the first segment of a multi-part location, then a
// keyword-led excerpt of the description cut at the next comma
func neighborhood(location, description string) string {
	if location != models.Sentinel {
		parts := strings.Split(location, ",")
		if len(parts) > 1 {
			if n := strings.TrimSpace(parts[0]); n != "" {
				return n
			}
		}
	}

	if description == "" {
		return models.Sentinel
	}

	lower := strings.ToLower(description)
	// byte offsets are only shared when lower-casing kept the length
	source := description
	if len(lower) != len(description) {
		source = lower
	}

	for _, kw := range NeighborhoodKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		excerpt := strings.SplitN(source[idx:], ",", 2)[0]
		if n := strings.TrimSpace(excerpt); n != "" {
			return n
		}
		break
	}
	return models.Sentinel
}
