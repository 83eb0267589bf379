package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestGetText(t *testing.T) {
	doc := parse(t, `<div id="x">Hello <b>big</b> world</div>`)
	require.Equal(t, "Hello big world", GetText(doc.Find("#x").Nodes[0]))
}

func TestFirstChildText(t *testing.T) {
	doc := parse(t, `
		<a id="plain"> Pizza <span>(12)</span></a>
		<a id="nested"><span>Bars</span> more</a>
		<a id="empty"></a>
	`)

	require.Equal(t, " Pizza ", FirstChildText(doc.Find("#plain").Nodes[0]))
	require.Equal(t, "Bars", FirstChildText(doc.Find("#nested").Nodes[0]))
	require.Equal(t, "", FirstChildText(doc.Find("#empty").Nodes[0]))
	require.Equal(t, "", FirstChildText(nil))
}

func TestClean(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  Page 1 of 3  ", expected: "Page 1 of 3"},
		{input: "Page\n\t1   of\n3", expected: "Page 1 of 3"},
		{input: "a\u0000b", expected: "ab"},
		{input: "", expected: ""},
	}

	for _, row := range table {
		require.Equal(t, row.expected, Clean(row.input))
	}
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `
		<a class="biz-name" href="/biz/first">  First
			Place </a>
		<a class="biz-name">no href</a>
		<a class="biz-name" href="/biz/second">Second</a>
	`)

	anchors := GetAnchors(doc.Find("a.biz-name"))
	expected := []Anchor{
		{Name: "First Place", Href: "/biz/first"},
		{Name: "Second", Href: "/biz/second"},
	}
	if diff := cmp.Diff(expected, anchors); diff != "" {
		t.Fatalf("anchors mismatch (-want +got):\n%s", diff)
	}
}
