package models

// Sentinel marks a field that could not be recovered from a page
const Sentinel = "N/A"

// ListingLink is a normalized, query-less absolute URL of one listing
type ListingLink = string

// PropertyRecord is one output row built from a fetched listing page.
// Every field is always set; missing values hold Sentinel.
type PropertyRecord struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	Price           string `json:"price"`
	Location        string `json:"location"`
	Type            string `json:"type"`
	Area            string `json:"area"`
	Rooms           string `json:"rooms"`
	Bedrooms        string `json:"bedrooms"`
	Bathrooms       string `json:"bathrooms"`
	Description     string `json:"description"`
	PropertyState   string `json:"property_state"`
	Garden          string `json:"jardin"`
	Pool            string `json:"piscine"`
	EquippedKitchen string `json:"cuisine_equiped"`
	Neighborhood    string `json:"quartier"`
	Status          string `json:"status"`
}

// RecordColumns is the fixed, ordered column set of the detail output
var RecordColumns = []string{
	"id", "url", "title", "price", "location", "type",
	"area", "rooms", "bedrooms", "bathrooms", "description",
	"property_state", "jardin", "piscine", "cuisine_equiped",
	"quartier", "status",
}

// NewSentinelRecord returns a record for url with every other field set to Sentinel
func NewSentinelRecord(url string) PropertyRecord {
	return PropertyRecord{
		ID:              Sentinel,
		URL:             url,
		Title:           Sentinel,
		Price:           Sentinel,
		Location:        Sentinel,
		Type:            Sentinel,
		Area:            Sentinel,
		Rooms:           Sentinel,
		Bedrooms:        Sentinel,
		Bathrooms:       Sentinel,
		Description:     Sentinel,
		PropertyState:   Sentinel,
		Garden:          Sentinel,
		Pool:            Sentinel,
		EquippedKitchen: Sentinel,
		Neighborhood:    Sentinel,
		Status:          Sentinel,
	}
}

// Row returns the record values in RecordColumns order
func (r PropertyRecord) Row() []string {
	return []string{
		r.ID, r.URL, r.Title, r.Price, r.Location, r.Type,
		r.Area, r.Rooms, r.Bedrooms, r.Bathrooms, r.Description,
		r.PropertyState, r.Garden, r.Pool, r.EquippedKitchen,
		r.Neighborhood, r.Status,
	}
}

// Mode selects which phases of the pipeline run
type Mode string

const (
	ModeDiscover Mode = "discover"
	ModeIngest   Mode = "ingest"
	ModeRun      Mode = "run"
)

// AmenityStyle selects how boolean amenity flags are rendered
type AmenityStyle string

const (
	AmenityOuiNon AmenityStyle = "oui-non"
	AmenityBinary AmenityStyle = "binary"
)

// Render returns the localized yes/no value for b
func (s AmenityStyle) Render(b bool) string {
	if s == AmenityBinary {
		if b {
			return "1"
		}
		return "0"
	}
	if b {
		return "Oui"
	}
	return "Non"
}
