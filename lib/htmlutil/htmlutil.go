package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// FirstChildText returns the data of the node's first child when it is a
// text node, otherwise the text of the whole first child subtree.
func FirstChildText(node *html.Node) string {
	if node == nil || node.FirstChild == nil {
		return ""
	}
	child := node.FirstChild
	if child.Type == html.TextNode {
		return child.Data
	}
	return GetText(child)
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// Clean drops non-printable runes, trims the result and collapses inner
// runs of whitespace into a single space.
func Clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

type Anchor struct {
	Name string
	Href string
}

// GetAnchors returns the anchors of the selection in document order,
// nodes without an href attribute are skipped.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href, ok := attr(n, "href")
		if !ok {
			continue
		}
		anchors = append(anchors, Anchor{
			Name: Clean(GetText(n)),
			Href: href,
		})
	}
	return anchors
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
