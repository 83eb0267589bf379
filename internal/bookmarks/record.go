package bookmarks

import (
	"fmt"

	"yelp-bookmarks/internal/extract"
	"yelp-bookmarks/internal/yelpapi"
)

// Source is where the data of a record came from.
type Source string

const (
	SourceAPI  Source = "api"
	SourcePage Source = "page"
)

// Record is a resolved bookmark. Exactly one of Business and Page is set,
// depending on Source.
type Record struct {
	Source     Source
	BusinessID string

	Business *yelpapi.Business
	Page     *extract.Result
}

// MarshalJSON emits only the payload, the api payload verbatim or the page
// result with its fields in extraction order. The payload marshalers are
// called directly so html characters stay unescaped.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Source {
	case SourceAPI:
		if r.Business == nil {
			return nil, fmt.Errorf("record %s: missing business payload", r.BusinessID)
		}
		return r.Business.MarshalJSON()
	case SourcePage:
		if r.Page == nil {
			return nil, fmt.Errorf("record %s: missing page result", r.BusinessID)
		}
		return r.Page.MarshalJSON()
	default:
		return nil, fmt.Errorf("record %s: unknown source %q", r.BusinessID, r.Source)
	}
}
