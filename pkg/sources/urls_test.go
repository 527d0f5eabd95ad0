package sources

import "testing"

func TestPageURL(t *testing.T) {
	src := HackerNews()

	cases := []struct {
		page int
		want string
	}{
		{1, "https://news.ycombinator.com/favorites?id=pg"},
		{2, "https://news.ycombinator.com/favorites?id=pg&p=2"},
		{16, "https://news.ycombinator.com/favorites?id=pg&p=16"},
	}
	for _, tc := range cases {
		if got := src.PageURL("pg", tc.page); got != tc.want {
			t.Errorf("PageURL(pg, %d) = %q, want %q", tc.page, got, tc.want)
		}
	}
}

func TestResolveURL(t *testing.T) {
	src := HackerNews()

	cases := map[string]string{
		"item?id=42":               "https://news.ycombinator.com/item?id=42",
		"https://example.com/post": "https://example.com/post",
		"from?site=example.com":    "https://news.ycombinator.com/from?site=example.com",
		"  ":                       "",
	}
	for in, want := range cases {
		if got := src.ResolveURL(in); got != want {
			t.Errorf("ResolveURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestItemURL(t *testing.T) {
	if got := HackerNews().ItemURL("8863"); got != "https://news.ycombinator.com/item?id=8863" {
		t.Fatalf("ItemURL = %q", got)
	}
}
