package favorites

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/randfav/pkg/httpclient"
)

// stubResponse implements httpclient.Response.
type stubResponse struct {
	body   []byte
	status int
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.status }

// fakeListing serves a synthetic favorites listing of total items, perPage per
// page, with ids 1..total in order. It records every request.
type fakeListing struct {
	total   int
	perPage int

	// linklessFrom makes rows on linklessPage from this 0-based offset on
	// render without a title link.
	linklessPage int
	linklessFrom int

	failPage   int
	failStatus int
	endless    bool
	// moreQuery is appended to the query of every next-page link.
	moreQuery string

	requests []string
	byURL    map[string]int
	pages    []int
}

func newFakeListing(total, perPage int) *fakeListing {
	return &fakeListing{total: total, perPage: perPage, byURL: map[string]int{}}
}

func (f *fakeListing) Get(_ context.Context, rawURL string, _ map[string]string) (httpclient.Response, error) {
	f.requests = append(f.requests, rawURL)
	f.byURL[rawURL]++

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	page := 1
	if p := u.Query().Get("p"); p != "" {
		if page, err = strconv.Atoi(p); err != nil {
			return nil, err
		}
	}
	f.pages = append(f.pages, page)

	if page == f.failPage {
		if f.failStatus == 0 {
			return nil, errors.New("connection reset")
		}
		return stubResponse{status: f.failStatus, body: []byte("upstream down")}, nil
	}
	return stubResponse{status: 200, body: []byte(f.render(page))}, nil
}

func (f *fakeListing) lastPage() int {
	if f.total == 0 {
		return 1
	}
	return (f.total + f.perPage - 1) / f.perPage
}

func (f *fakeListing) render(page int) string {
	var b strings.Builder
	b.WriteString("<html><body><table>")

	first := (page-1)*f.perPage + 1
	last := min(page*f.perPage, f.total)
	if f.endless {
		last = first + f.perPage - 1
	}
	for id := first; id <= last; id++ {
		if page == f.linklessPage && id-first >= f.linklessFrom {
			fmt.Fprintf(&b, `<tr class="athing submission" id="%d"><td class="title"><span class="titleline">gone</span></td></tr>`, id)
			continue
		}
		fmt.Fprintf(&b, `<tr class="athing submission" id="%d"><td class="title"><span class="titleline"><a href="https://example.com/%d">Story %d</a> <span class="sitebit">(example.com)</span></span></td></tr>`, id, id, id)
		b.WriteString(`<tr><td class="subtext">points</td></tr>`)
	}
	b.WriteString("</table>")
	if f.endless || page < f.lastPage() {
		href := fmt.Sprintf("favorites?id=user&amp;p=%d", page+1)
		if f.moreQuery != "" {
			href += "&amp;" + f.moreQuery
		}
		fmt.Fprintf(&b, `<a href="%s" class="morelink" rel="next">More</a>`, href)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// fixedRandom returns queued values, then zeros.
type fixedRandom struct {
	values []int
	calls  []int
}

func (r *fixedRandom) IntN(n int) int {
	r.calls = append(r.calls, n)
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

type loggedEntry struct {
	level string
	msg   string
	obj   any
}

// recordingLogger keeps every entry for assertions.
type recordingLogger struct {
	entries []loggedEntry
}

func (l *recordingLogger) add(level, msg string, obj any) {
	l.entries = append(l.entries, loggedEntry{level: level, msg: msg, obj: obj})
}

func (l *recordingLogger) InfoObj(msg, _ string, obj interface{})  { l.add("info", msg, obj) }
func (l *recordingLogger) DebugObj(msg, _ string, obj interface{}) { l.add("debug", msg, obj) }
func (l *recordingLogger) WarnObj(msg, _ string, obj interface{})  { l.add("warn", msg, obj) }
func (l *recordingLogger) ErrorObj(msg, _ string, obj interface{}) { l.add("error", msg, obj) }

func (l *recordingLogger) find(msg string) (loggedEntry, bool) {
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return loggedEntry{}, false
}
