package yelpapi

import (
	"fmt"
	"strings"
)

// CoverageGapPhrase is what the business details endpoint answers with when
// it has no data on a business that does exist on the website.
const CoverageGapPhrase = "We may not be able to provide details for certain businesses"

// APIError is returned when the response body carries an error descriptor.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("yelp api: %s", e.Description)
	}
	return fmt.Sprintf("yelp api: %s: %s", e.Code, e.Description)
}

// IsCoverageGap reports whether the api lacks data for the business, in which
// case the business page is the only remaining source.
func (e *APIError) IsCoverageGap() bool {
	return strings.Contains(e.Description, CoverageGapPhrase)
}

// DecodeError is returned when the response body is not the expected json.
type DecodeError struct {
	URL    string
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("yelp api: decode response of %s (status %d): %v", e.URL, e.Status, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
