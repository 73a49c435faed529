package extract

import (
	"errors"
	"reflect"
	"testing"

	"github.com/law-makers/immocrawl/pkg/models"
)

const testListingURL = "https://www.mubawab.ma/fr/a/7654321"

// fullListingHTML carries every block the extractor looks at
const fullListingHTML = `<!DOCTYPE html>
<html>
<head><title>Annonce</title></head>
<body>
	<h1 class="titleListing">Appartement lumineux à Agdal</h1>
	<h3 class="orangeTit">1 250 000 DH</h3>
	<h2 class="greyTit">Agdal, Rabat</h2>
	<div class="adDetails">
		<div class="adDetailFeature"><i class="icon-triangle"></i><span>120 m²</span></div>
		<div class="adDetailFeature"><i class="icon-house-boxes"></i><span>4 Pièces</span></div>
		<div class="adDetailFeature"><i class="icon-bed"></i><span>3 Chambres</span></div>
		<div class="adDetailFeature"><i class="icon-bath"></i><span>2 Salles de bain</span></div>
	</div>
	<span class="tag">Bon état</span>
	<span class="tag">À vendre</span>
	<div class="blockDescription">
		<p>Bel appartement avec cuisine équipée et jardin verdoyant,
		proche de toutes commodités.</p>
	</div>
	<div class="featuresList"><span>Ascenseur</span><span>Parking</span></div>
</body>
</html>`

func TestExtract_FullPage(t *testing.T) {
	rec, err := New(models.AmenityOuiNon).Extract([]byte(fullListingHTML), testListingURL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := models.PropertyRecord{
		ID:              "7654321",
		URL:             testListingURL,
		Title:           "Appartement lumineux à Agdal",
		Price:           "1250000",
		Location:        "Agdal, Rabat",
		Type:            "appartement",
		Area:            "120",
		Rooms:           "4",
		Bedrooms:        "3",
		Bathrooms:       "2",
		Description:     "Bel appartement avec cuisine équipée et jardin verdoyant, proche de toutes commodités.",
		PropertyState:   "Bon état",
		Garden:          "Oui",
		Pool:            "Non",
		EquippedKitchen: "Oui",
		Neighborhood:    "Agdal",
		Status:          "À vendre",
	}

	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Unexpected record:\n got  %+v\n want %+v", rec, want)
	}
}

func TestExtract_PriceDigitsOnly(t *testing.T) {
	html := `<html><body><h3 class="orangeTit">1 250 000 DH</h3></body></html>`
	rec, err := New(models.AmenityOuiNon).Extract([]byte(html), testListingURL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if rec.Price != "1250000" {
		t.Errorf("Expected price 1250000, got %q", rec.Price)
	}
}

func TestExtract_PriceWithoutDigits(t *testing.T) {
	html := `<html><body><h3 class="orangeTit">Prix à consulter</h3></body></html>`
	rec, _ := New(models.AmenityOuiNon).Extract([]byte(html), testListingURL)
	if rec.Price != models.Sentinel {
		t.Errorf("Expected sentinel price, got %q", rec.Price)
	}
}

func TestExtract_AmenitiesFromDescription(t *testing.T) {
	html := `<html><body><div class="blockDescription">cuisine équipée et jardin verdoyant</div></body></html>`
	rec, err := New(models.AmenityOuiNon).Extract([]byte(html), testListingURL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if rec.EquippedKitchen != "Oui" {
		t.Errorf("Expected equipped kitchen, got %q", rec.EquippedKitchen)
	}
	if rec.Garden != "Oui" {
		t.Errorf("Expected garden, got %q", rec.Garden)
	}
	if rec.Pool != "Non" {
		t.Errorf("Expected no pool, got %q", rec.Pool)
	}
}

func TestExtract_AmenitiesFromFeaturesList(t *testing.T) {
	html := `<html><body>
		<div class="blockDescription">Villa spacieuse.</div>
		<div class="featuresList"><span>Piscine</span><span>Cuisine equipee</span></div>
	</body></html>`
	rec, _ := New(models.AmenityBinary).Extract([]byte(html), testListingURL)

	if rec.Pool != "1" {
		t.Errorf("Expected pool from features list, got %q", rec.Pool)
	}
	if rec.EquippedKitchen != "1" {
		t.Errorf("Expected kitchen from features list, got %q", rec.EquippedKitchen)
	}
	if rec.Garden != "0" {
		t.Errorf("Expected no garden, got %q", rec.Garden)
	}
}

func TestExtract_NoFeatureBlocks(t *testing.T) {
	url := "https://site.example/fr/a/583920"
	rec, err := New(models.AmenityOuiNon).Extract([]byte(`<html><body><p>rien</p></body></html>`), url)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if rec.ID != "583920" {
		t.Errorf("Expected id 583920, got %q", rec.ID)
	}
	for name, v := range map[string]string{
		"area": rec.Area, "rooms": rec.Rooms, "bedrooms": rec.Bedrooms, "bathrooms": rec.Bathrooms,
	} {
		if v != models.Sentinel {
			t.Errorf("Expected %s to be %q, got %q", name, models.Sentinel, v)
		}
	}
}

func TestExtract_FeatureIconWithoutSpan(t *testing.T) {
	html := `<html><body><div class="adDetailFeature"><i class="icon-bed"></i></div></body></html>`
	rec, _ := New(models.AmenityOuiNon).Extract([]byte(html), testListingURL)
	if rec.Bedrooms != models.Sentinel {
		t.Errorf("Expected sentinel bedrooms, got %q", rec.Bedrooms)
	}
}

func TestExtract_SentinelCompleteness(t *testing.T) {
	pages := []string{
		fullListingHTML,
		`<html></html>`,
		`<div class="blockDescription"></div>`,
		`not really html at all`,
	}

	for _, page := range pages {
		rec, err := New(models.AmenityOuiNon).Extract([]byte(page), "https://www.mubawab.ma/fr/p/12")
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		for i, v := range rec.Row() {
			if v == "" {
				t.Errorf("Column %s is empty for page %q", models.RecordColumns[i], page)
			}
		}
	}
}

func TestExtract_EmptyMarkupIsUnparsable(t *testing.T) {
	_, err := New(models.AmenityOuiNon).Extract([]byte("  \n"), testListingURL)
	if !errors.Is(err, ErrUnparsable) {
		t.Errorf("Expected ErrUnparsable, got %v", err)
	}
}

func TestExtractID(t *testing.T) {
	tests := map[string]string{
		"https://www.mubawab.ma/fr/a/583920":            "583920",
		"https://www.mubawab.ma/fr/p/42/some-slug":      "42",
		"https://www.mubawab.ma/fr/ct/rabat/immobilier": models.Sentinel,
		"":                                              models.Sentinel,
	}
	for in, want := range tests {
		if got := ExtractID(in); got != want {
			t.Errorf("ExtractID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPropertyType(t *testing.T) {
	tests := []struct {
		url, title, want string
	}{
		{"https://www.mubawab.ma/fr/a/1", "Villa avec piscine", "villa"},
		{"https://www.mubawab.ma/fr/a/1", "STUDIO meublé", "studio"},
		{"https://www.mubawab.ma/fr/ct/rabat/maison-a-vendre/1", "Belle propriété", "maison"},
		// vocabulary order decides when several terms appear
		{"https://www.mubawab.ma/fr/a/1", "Studio ou appartement", "appartement"},
		{"https://www.mubawab.ma/fr/a/1", models.Sentinel, models.Sentinel},
	}
	for _, tt := range tests {
		if got := propertyType(tt.url, tt.title); got != tt.want {
			t.Errorf("propertyType(%q, %q) = %q, want %q", tt.url, tt.title, got, tt.want)
		}
	}
}

func TestConditionAndStatus_TagOrder(t *testing.T) {
	html := `<html><body>
		<span class="tag">Parking</span>
		<span class="tag">Nouveau projet</span>
		<span class="tag">Ancien</span>
		<span class="tag">Loué</span>
	</body></html>`
	rec, _ := New(models.AmenityOuiNon).Extract([]byte(html), testListingURL)

	if rec.PropertyState != "Neuf" {
		t.Errorf("Expected Neuf from first matching tag, got %q", rec.PropertyState)
	}
	if rec.Status != "Loué" {
		t.Errorf("Expected Loué, got %q", rec.Status)
	}
}

func TestStatus_URLFallback(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://www.mubawab.ma/fr/a-louer/rabat/fr/a/1", "À louer"},
		{"https://www.mubawab.ma/fr/a-vendre/rabat/fr/a/1", "À vendre"},
		{"https://www.mubawab.ma/fr/a/1", models.Sentinel},
	}
	for _, tt := range tests {
		if got := status(nil, tt.url); got != tt.want {
			t.Errorf("status(nil, %q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	// no tags and unrecognized tags are treated alike
	if got := status([]string{"exclusif"}, "https://www.mubawab.ma/fr/a/1"); got != models.Sentinel {
		t.Errorf("Expected sentinel for unrecognized tags, got %q", got)
	}
}

func TestNeighborhood(t *testing.T) {
	tests := []struct {
		location, description, want string
	}{
		{"Hay Riad, Rabat", "", "Hay Riad"},
		{"Rabat", "Situé dans le quartier Hassan, près du centre", "quartier Hassan"},
		{models.Sentinel, "Bel appartement secteur 12, Hay Riad", "secteur 12"},
		{"Rabat", "Aucune indication", models.Sentinel},
		{models.Sentinel, "", models.Sentinel},
	}
	for _, tt := range tests {
		if got := neighborhood(tt.location, tt.description); got != tt.want {
			t.Errorf("neighborhood(%q, %q) = %q, want %q", tt.location, tt.description, got, tt.want)
		}
	}
}
