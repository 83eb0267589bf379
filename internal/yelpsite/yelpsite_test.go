package yelpsite

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"yelp-bookmarks/internal/components/telemetry"
	"yelp-bookmarks/internal/extract"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(body)
}

type pages map[string]string

func (p pages) Fetch(_ context.Context, url string) (string, error) {
	body, ok := p[url]
	if !ok {
		return "", errors.New("unexpected url " + url)
	}
	return body, nil
}

func TestBookmarksURL(t *testing.T) {
	require.Equal(
		t,
		"https://www.yelp.com/user_details_bookmarks?userid=abc123",
		BookmarksURL(DefaultBaseURL, "abc123"),
	)
	require.Equal(
		t,
		"http://localhost/user_details_bookmarks?userid=a+b%26c",
		BookmarksURL("http://localhost/", "a b&c"),
	)
}

func TestPageURLs(t *testing.T) {
	first := "https://www.yelp.com/user_details_bookmarks?userid=u"
	require.Equal(t, []string{
		first,
		first + "&start=50",
		first + "&start=100",
	}, PageURLs(first, 3))

	require.Equal(t, []string{first}, PageURLs(first, 1))
	require.Empty(t, PageURLs(first, 0))
	require.Empty(t, PageURLs(first, -1))
}

func TestBusinessID(t *testing.T) {
	table := []struct {
		link     string
		expected string
	}{
		{link: "/biz/gary-danko-san-francisco", expected: "gary-danko-san-francisco"},
		{link: "/biz/a/biz/b", expected: "a/biz/b"},
		{link: "no-prefix", expected: "no-prefix"},
	}
	for _, row := range table {
		require.Equal(t, row.expected, BusinessID(row.link))
	}
	require.Equal(t, "https://www.yelp.com/biz/x", BusinessURL("https://www.yelp.com/", "/biz/x"))
}

func TestParsePageCount(t *testing.T) {
	table := []struct {
		text     string
		expected int
		fails    bool
	}{
		{text: "Page 1 of 3", expected: 3},
		{text: "Page 2 of 12", expected: 12},
		// the first number is never looked at
		{text: "Page 99 of 4", expected: 4},
		{text: "1 2 3", expected: 2},
		{text: "Page 1", fails: true},
		{text: "", fails: true},
	}

	for _, row := range table {
		count, err := ParsePageCount(row.text)
		if row.fails {
			var parseErr *extract.ParseError
			require.True(t, errors.As(err, &parseErr), row.text)
			continue
		}
		require.NoError(t, err, row.text)
		require.Equal(t, row.expected, count, row.text)
	}
}

func TestBookmarkPageRules(t *testing.T) {
	url := "https://www.yelp.com/user_details_bookmarks?userid=u"
	e := extract.New(pages{url: readTestdata(t, "bookmarks_page.html")}, extract.WithTelemetry(&telemetry.Recorder{}))

	count, err := PageCount(context.Background(), e, url)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	links, err := BusinessLinks(context.Background(), e, url)
	require.NoError(t, err)
	require.Equal(t, []string{
		"/biz/gary-danko-san-francisco",
		"/biz/tartine-bakery-san-francisco",
		"/biz/zuni-cafe-san-francisco",
	}, links)
}

func TestPageCountMissing(t *testing.T) {
	url := "https://www.yelp.com/user_details_bookmarks?userid=u"
	e := extract.New(pages{url: `<html><body>nothing here</body></html>`}, extract.WithTelemetry(&telemetry.Recorder{}))

	_, err := PageCount(context.Background(), e, url)
	var parseErr *extract.ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, FieldPageCount, parseErr.Field)
}

func TestBusinessLinksEmptyPage(t *testing.T) {
	result, err := extract.FromHTML(`<html></html>`, BusinessLinkRules())
	require.NoError(t, err)

	links, err := extract.Value[[]string](result, FieldBusinesses)
	require.NoError(t, err)
	require.NotNil(t, links)
	require.Empty(t, links)
}

func TestBusinessProfileFull(t *testing.T) {
	bizURL := "https://www.yelp.com/biz/gary-danko-san-francisco"
	e := extract.New(pages{bizURL: readTestdata(t, "business_full.html")}, extract.WithTelemetry(&telemetry.Recorder{}))

	result, err := ExtractBusiness(context.Background(), e, bizURL)
	require.NoError(t, err)

	out, err := json.Marshal(result)
	require.NoError(t, err)

	expected := `{"url":"https://www.yelp.com/biz/gary-danko-san-francisco","bizid":"WavvLdfdP6g8aZTtbBQHTw","name":"Gary Danko","address":"800 N Point St, San Francisco, CA","categories":["American (New)","French","Wine Bars"],"rating":4.5,"price_range":"$$$$","latitude":37.80587,"longitude":-122.42058}`
	if diff := cmp.Diff(expected, string(out)); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestBusinessProfileDefaults(t *testing.T) {
	bizURL := "https://www.yelp.com/biz/corner-stand-oakland"
	result, err := extract.FromHTML(readTestdata(t, "business_bare.html"), BusinessProfile(bizURL))
	require.NoError(t, err)

	require.Equal(t, []string{
		FieldURL, FieldBizID, FieldName, FieldAddress, FieldCategories,
		FieldRating, FieldPriceRange, FieldLatitude, FieldLongitude,
	}, result.Names())

	get := func(name string) any {
		value, ok := result.Get(name)
		require.True(t, ok, name)
		return value
	}
	require.Equal(t, "Corner Stand", get(FieldName))
	require.Equal(t, "1 Main St, Oakland, CA", get(FieldAddress))
	require.Equal(t, []string{"Food Stands"}, get(FieldCategories))
	require.Equal(t, 0, get(FieldRating))
	require.Equal(t, "N/A", get(FieldPriceRange))
	require.Equal(t, 0.00, get(FieldLatitude))
	require.Equal(t, 0.00, get(FieldLongitude))
}

func TestBusinessProfileWithoutStructuredData(t *testing.T) {
	result, err := extract.FromHTML(`<html><body></body></html>`, BusinessProfile("u"))
	require.NoError(t, err)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	require.Equal(t, `{"url":"u","bizid":"","name":"","address":"","categories":[],"rating":0,"price_range":"N/A","latitude":0,"longitude":0}`, string(out))
}

func TestBusinessProfileMalformedBlocks(t *testing.T) {
	table := []struct {
		name  string
		html  string
		field string
	}{
		{
			name:  "ld+json",
			html:  `<script type="application/ld+json">{"name": </script>`,
			field: "ld+json",
		},
		{
			name:  "map state",
			html:  `<div class="lightbox-map" data-map-state="{not json"></div>`,
			field: "data-map-state",
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			_, err := extract.FromHTML(row.html, BusinessProfile("u"))
			var parseErr *extract.ParseError
			require.True(t, errors.As(err, &parseErr))
			require.Equal(t, row.field, parseErr.Field)
		})
	}
}

func TestBusinessProfileStructuredDataArray(t *testing.T) {
	html := `<script type="application/ld+json">[{"@type":"WebSite"},{"name":"Array Place","priceRange":"$"}]</script>`
	result, err := extract.FromHTML(html, BusinessProfile("u"))
	require.NoError(t, err)

	name, _ := result.Get(FieldName)
	price, _ := result.Get(FieldPriceRange)
	require.Equal(t, "Array Place", name)
	require.Equal(t, "$", price)
}
