// Package markdown converts notes to and from Markdown with YAML frontmatter.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/quire/internal/models"
)

var (
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	blockEndRe = regexp.MustCompile(`(?i)</(p|h[1-6]|li|div|blockquote|pre)>|<br\s*/?>`)
	htmlTagRe  = regexp.MustCompile(`<[^>]*>`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
	unsafeName = regexp.MustCompile(`[\\/:*?"<>|]+`)
)

const delim = "---"

// Result holds the output of parsing a Markdown document.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Tags        []string
	Title       string
}

type frontmatter struct {
	Title   string    `yaml:"title"`
	Tags    []string  `yaml:"tags,omitempty"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`
}

// Render writes n as Markdown: frontmatter, an H1 title and the note text
// with editor markup reduced to plain paragraphs.
func Render(n models.Note) ([]byte, error) {
	fm, err := yaml.Marshal(frontmatter{
		Title:   n.Title,
		Tags:    n.Tags,
		Created: n.CreatedAt.UTC(),
		Updated: n.UpdatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("markdown: frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(fm)
	buf.WriteString(delim + "\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", n.Title)
	if text := PlainText(n.Content); text != "" {
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// Filename returns a safe "<title>.md" download name.
func Filename(title string) string {
	name := strings.TrimSpace(unsafeName.ReplaceAllString(title, "_"))
	if name == "" {
		name = "note"
	}
	return name + ".md"
}

// PlainText strips markup from editor content, keeping block boundaries as
// line breaks.
func PlainText(markup string) string {
	s := blockEndRe.ReplaceAllString(markup, "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Parse extracts frontmatter, body, tags and title from raw Markdown bytes.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Missing or invalid frontmatter leaves the whole input as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// extractTags collects frontmatter "tags" then inline #tags, deduplicated.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle prefers frontmatter "title", then the first H1.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// BodyHTML turns a Markdown body into minimal editor markup: the leading H1
// (if it equals title) is dropped and each paragraph becomes a <p>.
func BodyHTML(body, title string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "# "+title {
		lines = lines[1:]
	}
	var b strings.Builder
	for _, para := range strings.Split(strings.Join(lines, "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>")
	}
	return b.String()
}
