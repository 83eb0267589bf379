package yelpapi

import (
	"encoding/json"
)

type Credentials struct {
	AppID     string
	AppSecret string
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Location struct {
	Address1       string   `json:"address1"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	ZipCode        string   `json:"zip_code"`
	Country        string   `json:"country"`
	DisplayAddress []string `json:"display_address"`
}

// Business is a business as returned by the business details endpoint. The
// typed fields are a subset of the payload, the payload itself is kept and
// is what gets marshaled back out.
type Business struct {
	ID          string      `json:"id"`
	Alias       string      `json:"alias"`
	Name        string      `json:"name"`
	URL         string      `json:"url"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Price       string      `json:"price"`
	Categories  []Category  `json:"categories"`
	Coordinates Coordinates `json:"coordinates"`
	Location    Location    `json:"location"`

	raw json.RawMessage
}

func (b *Business) UnmarshalJSON(data []byte) error {
	type plain Business
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*b = Business(decoded)
	b.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (b Business) MarshalJSON() ([]byte, error) {
	if len(b.raw) > 0 {
		return b.raw, nil
	}
	type plain Business
	return json.Marshal(plain(b))
}

// errorBody is the error descriptor yelp puts in the body of failed responses.
type errorBody struct {
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}
