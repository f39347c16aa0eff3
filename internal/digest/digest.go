// Package digest renders the new relevant items of a run into a
// human-readable push digest and splits it into size-bounded chunks.
package digest

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Placeholder is the chunk body emitted when the digest is empty.
const Placeholder = "(empty)"

// kst is the fixed UTC+9 zone used to date-stamp digest titles.
var kst = time.FixedZone("KST", 9*60*60)

// Entry is one digest line: a new relevant item and which source found it.
type Entry struct {
	Source string
	Title  string
	URL    string
}

// Digest is the rendered, chunked notification batch for one run. Chunks
// and Titles are parallel: chunk i is sent with title i.
type Digest struct {
	Body   string
	Chunks []string
	Titles []string
}

// Build renders the entries into the run's digest. Each entry becomes one
// line "• (<source>) <shortened title>\n<url>"; lines are joined by blank
// lines and split into chunks of at most budget characters. Chunk titles
// carry the KST date and the label, with a numeric suffix on every chunk
// unless a single chunk alone fits the budget.
func Build(entries []Entry, label string, now time.Time, titleMax, budget int) Digest {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• (%s) %s\n%s", e.Source, Shorten(e.Title, titleMax), e.URL))
	}
	body := strings.Join(lines, "\n\n")

	chunks := Chunk(body, budget)
	base := now.In(kst).Format("2006-01-02") + " " + label
	solo := len(chunks) == 1 && utf8.RuneCountInString(body) <= budget

	titles := make([]string, len(chunks))
	for i := range chunks {
		if solo {
			titles[i] = base
		} else {
			titles[i] = fmt.Sprintf("%s (%d)", base, i+1)
		}
	}

	return Digest{Body: body, Chunks: chunks, Titles: titles}
}

// Shorten collapses whitespace in s and truncates it to at most max display
// characters, marking truncation with a trailing ellipsis. Truncation backs
// off to the previous word boundary when one exists.
func Shorten(s string, max int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(collapsed) <= max {
		return collapsed
	}

	runes := []rune(collapsed)
	cut := string(runes[:max-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ") + "…"
}

// Chunk splits body into pieces of at most budget characters, accumulating
// whole lines; a single line longer than the budget is kept intact in its
// own chunk rather than split. An empty body yields one placeholder chunk.
func Chunk(body string, budget int) []string {
	if body == "" {
		return []string{Placeholder}
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if chunk := strings.TrimRight(cur.String(), " \t\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.Split(body, "\n") {
		add := line + "\n"
		addLen := utf8.RuneCountInString(add)
		if curLen+addLen > budget && curLen > 0 {
			flush()
		}
		cur.WriteString(add)
		curLen += addLen
	}
	flush()

	if len(chunks) == 0 {
		return []string{Placeholder}
	}
	return chunks
}
