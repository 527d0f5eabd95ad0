package publishers

import "github.com/samvad-hq/randfav/internal/domain"

func sampleEvent() Event {
	return NewEvent("hn", "pg", domain.TargetComments, domain.Item{
		ID:          "8863",
		ArticleURL:  "https://example.com/dropbox",
		CommentsURL: "https://news.ycombinator.com/item?id=8863",
	}, 145)
}
