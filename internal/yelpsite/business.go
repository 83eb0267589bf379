package yelpsite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"yelp-bookmarks/internal/extract"
	"yelp-bookmarks/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// field names of a business page record, in output order
const (
	FieldURL        = "url"
	FieldBizID      = "bizid"
	FieldName       = "name"
	FieldAddress    = "address"
	FieldCategories = "categories"
	FieldRating     = "rating"
	FieldPriceRange = "price_range"
	FieldLatitude   = "latitude"
	FieldLongitude  = "longitude"
)

const unknownPriceRange = "N/A"

type postalAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
}

type aggregateRating struct {
	// ratingValue is a number on some pages and a string on others, it is
	// passed through untouched
	RatingValue any `json:"ratingValue"`
}

// StructuredData is the subset of the page's ld+json block that is used.
type StructuredData struct {
	Name            string           `json:"name"`
	Address         *postalAddress   `json:"address"`
	AggregateRating *aggregateRating `json:"aggregateRating"`
	PriceRange      string           `json:"priceRange"`
}

type coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapState is the state blob the page's map widget is initialized with.
type MapState struct {
	Center *coordinate `json:"center"`
}

// BusinessContext is shared by the rules of BusinessProfile, either block is
// nil when the page does not have it.
type BusinessContext struct {
	Structured *StructuredData
	Map        *MapState
}

// BusinessProfile extracts a business record out of a business page. It is
// the fallback for businesses the api has no details on.
func BusinessProfile(bizURL string) extract.RuleSet[BusinessContext] {
	return extract.RuleSet[BusinessContext]{
		Pre: func(doc *goquery.Document, ctx *BusinessContext) error {
			structured, err := parseStructuredData(doc)
			if err != nil {
				return err
			}
			mapState, err := parseMapState(doc)
			if err != nil {
				return err
			}
			ctx.Structured = structured
			ctx.Map = mapState
			return nil
		},
		Fields: []extract.Field[BusinessContext]{
			{Name: FieldURL, Rule: func(*goquery.Document, *BusinessContext) (any, error) {
				return bizURL, nil
			}},
			{Name: FieldBizID, Rule: func(doc *goquery.Document, _ *BusinessContext) (any, error) {
				return doc.Find("meta[name=yelp-biz-id]").AttrOr("content", ""), nil
			}},
			{Name: FieldName, Rule: func(_ *goquery.Document, ctx *BusinessContext) (any, error) {
				if ctx.Structured == nil {
					return "", nil
				}
				return ctx.Structured.Name, nil
			}},
			{Name: FieldAddress, Rule: func(_ *goquery.Document, ctx *BusinessContext) (any, error) {
				if ctx.Structured == nil || ctx.Structured.Address == nil {
					return "", nil
				}
				a := ctx.Structured.Address
				return fmt.Sprintf("%s, %s, %s", a.StreetAddress, a.AddressLocality, a.AddressRegion), nil
			}},
			{Name: FieldCategories, Rule: func(doc *goquery.Document, _ *BusinessContext) (any, error) {
				return categories(doc), nil
			}},
			{Name: FieldRating, Rule: func(_ *goquery.Document, ctx *BusinessContext) (any, error) {
				if ctx.Structured == nil ||
					ctx.Structured.AggregateRating == nil ||
					ctx.Structured.AggregateRating.RatingValue == nil {
					return 0, nil
				}
				return ctx.Structured.AggregateRating.RatingValue, nil
			}},
			{Name: FieldPriceRange, Rule: func(_ *goquery.Document, ctx *BusinessContext) (any, error) {
				if ctx.Structured == nil || ctx.Structured.PriceRange == "" {
					return unknownPriceRange, nil
				}
				return ctx.Structured.PriceRange, nil
			}},
			{Name: FieldLatitude, Rule: func(_ *goquery.Document, ctx *BusinessContext) (any, error) {
				if ctx.Map == nil || ctx.Map.Center == nil {
					return 0.00, nil
				}
				return ctx.Map.Center.Latitude, nil
			}},
			{Name: FieldLongitude, Rule: func(_ *goquery.Document, ctx *BusinessContext) (any, error) {
				if ctx.Map == nil || ctx.Map.Center == nil {
					return 0.00, nil
				}
				return ctx.Map.Center.Longitude, nil
			}},
		},
	}
}

// ExtractBusiness fetches a business page and applies BusinessProfile to it.
func ExtractBusiness(ctx context.Context, e *extract.Extractor, bizURL string) (extract.Result, error) {
	return extract.Run(ctx, e, bizURL, BusinessProfile(bizURL))
}

// categories are the labels of the category links, deduplicated in the
// order they first appear.
func categories(doc *goquery.Document) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, node := range doc.Find(".category-str-list a").Nodes {
		label := strings.TrimSpace(htmlutil.FirstChildText(node))
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// parseStructuredData returns the first ld+json object that describes a
// business (has a name), pages may carry several blocks of which some are
// breadcrumbs and the like.
func parseStructuredData(doc *goquery.Document) (*StructuredData, error) {
	var found *StructuredData
	var parseErr error

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}

		var candidates []StructuredData
		var err error
		if strings.HasPrefix(text, "[") {
			err = json.Unmarshal([]byte(text), &candidates)
		} else {
			var single StructuredData
			err = json.Unmarshal([]byte(text), &single)
			candidates = append(candidates, single)
		}
		if err != nil {
			parseErr = &extract.ParseError{Field: "ld+json", Err: err}
			return false
		}

		for i := range candidates {
			if candidates[i].Name != "" {
				found = &candidates[i]
				return false
			}
		}
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return found, nil
}

func parseMapState(doc *goquery.Document) (*MapState, error) {
	raw, ok := doc.Find(".lightbox-map").First().Attr("data-map-state")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var state MapState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, &extract.ParseError{Field: "data-map-state", Err: err}
	}
	return &state, nil
}
