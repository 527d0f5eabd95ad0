package sources

import (
	"net/url"
	"strconv"
	"strings"
)

// PageURL builds the favorites listing URL for username at a 1-based page.
// Page 1 carries no page parameter so that it matches the canonical listing URL.
func (s Source) PageURL(username string, page int) string {
	q := url.Values{}
	q.Set(s.UserParam, username)
	u := s.BaseURL + s.FavoritesPath + "?" + q.Encode()
	if page > 1 {
		u += "&" + url.QueryEscape(s.PageParam) + "=" + strconv.Itoa(page)
	}
	return u
}

// ItemURL returns the discussion URL for an item id.
func (s Source) ItemURL(id string) string {
	return s.BaseURL + s.ItemPath + url.QueryEscape(id)
}

// ResolveURL turns an href found on a listing page into an absolute URL.
// Internal item links are anchored on the source base; other relative links
// are resolved against it; absolute links pass through.
func (s Source) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, s.ItemPath) {
		return s.BaseURL + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
