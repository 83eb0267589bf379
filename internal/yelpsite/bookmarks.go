// Package yelpsite holds everything that depends on the markup of the yelp
// website: url layout, bookmark page rules and the business page profile.
package yelpsite

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"yelp-bookmarks/internal/extract"
	"yelp-bookmarks/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const DefaultBaseURL = "https://www.yelp.com"

// PageSize is the number of bookmarks listed on a single bookmarks page.
const PageSize = 50

const bizPrefix = "/biz/"

const (
	FieldPageCount  = "pageCount"
	FieldBusinesses = "businesses"
)

// BookmarksURL is the first bookmarks page of a user.
func BookmarksURL(siteBase, userID string) string {
	return fmt.Sprintf(
		"%s/user_details_bookmarks?userid=%s",
		strings.TrimRight(siteBase, "/"),
		url.QueryEscape(userID),
	)
}

// PageURLs lists the bookmark pages, the first one is the bare url and every
// following page is offset by PageSize results.
func PageURLs(first string, pageCount int) []string {
	urls := make([]string, 0, max(pageCount, 0))
	for i := 0; i < pageCount; i++ {
		if i == 0 {
			urls = append(urls, first)
			continue
		}
		urls = append(urls, fmt.Sprintf("%s&start=%d", first, i*PageSize))
	}
	return urls
}

// BusinessID strips the /biz/ prefix off a business link.
func BusinessID(link string) string {
	return strings.Replace(link, bizPrefix, "", 1)
}

// BusinessURL is the absolute url of a business link.
func BusinessURL(siteBase, link string) string {
	return strings.TrimRight(siteBase, "/") + link
}

var digitGroups = regexp.MustCompile(`[0-9]+`)

// ParsePageCount reads the page count out of the pager text, which looks
// like "Page 1 of 3". The second number is taken as is.
func ParsePageCount(text string) (int, error) {
	groups := digitGroups.FindAllString(text, -1)
	if len(groups) < 2 {
		return 0, &extract.ParseError{
			Field: FieldPageCount,
			Err:   fmt.Errorf("no page count in %q", text),
		}
	}
	count, err := strconv.Atoi(groups[1])
	if err != nil {
		return 0, &extract.ParseError{Field: FieldPageCount, Err: err}
	}
	return count, nil
}

func PageCountRules() extract.RuleSet[extract.NoContext] {
	return extract.RuleSet[extract.NoContext]{
		Fields: []extract.Field[extract.NoContext]{
			{
				Name: FieldPageCount,
				Rule: func(doc *goquery.Document, _ *extract.NoContext) (any, error) {
					text := htmlutil.Clean(doc.Find("div.page-of-pages").Text())
					return ParsePageCount(text)
				},
			},
		},
	}
}

func BusinessLinkRules() extract.RuleSet[extract.NoContext] {
	return extract.RuleSet[extract.NoContext]{
		Fields: []extract.Field[extract.NoContext]{
			{
				Name: FieldBusinesses,
				Rule: func(doc *goquery.Document, _ *extract.NoContext) (any, error) {
					links := []string{}
					for _, anchor := range htmlutil.GetAnchors(doc.Find("a.biz-name")) {
						links = append(links, anchor.Href)
					}
					return links, nil
				},
			},
		},
	}
}

// PageCount extracts the number of bookmark pages from the first page.
func PageCount(ctx context.Context, e *extract.Extractor, firstPage string) (int, error) {
	result, err := extract.Run(ctx, e, firstPage, PageCountRules())
	if err != nil {
		return 0, err
	}
	return extract.Value[int](result, FieldPageCount)
}

// BusinessLinks extracts the business links of one bookmarks page, in the
// order they are listed.
func BusinessLinks(ctx context.Context, e *extract.Extractor, page string) ([]string, error) {
	result, err := extract.Run(ctx, e, page, BusinessLinkRules())
	if err != nil {
		return nil, err
	}
	return extract.Value[[]string](result, FieldBusinesses)
}
