package domain

// Domain contains core models shared across packages.

// Item is a single favorited entry on a listing page.
type Item struct {
	ID          string `json:"id"`
	ArticleURL  string `json:"article_url"`
	CommentsURL string `json:"comments_url"`
}

// Target selects which URL of an Item the caller is redirected to.
type Target string

const (
	TargetArticle  Target = "article"
	TargetComments Target = "comments"
)

// ParseTarget returns the Target named by raw, if it is a known one.
func ParseTarget(raw string) (Target, bool) {
	switch t := Target(raw); t {
	case TargetArticle, TargetComments:
		return t, true
	default:
		return "", false
	}
}

// URL returns the item URL matching target.
func (it Item) URL(target Target) string {
	if target == TargetArticle {
		return it.ArticleURL
	}
	return it.CommentsURL
}
