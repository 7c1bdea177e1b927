package search

import (
	"strconv"
	"strings"
	"time"

	"blog/app/models"

	"golang.org/x/net/html"
)

// PostDocument is the indexed form of a post
type PostDocument struct {
	Title   string    `json:"title"`
	Intro   string    `json:"intro"`
	Body    string    `json:"body"`
	Publish time.Time `json:"publish"`
	Status  string    `json:"status"`
}

// NewPostDocument prepares a post for indexing, stripping markup from the body
func NewPostDocument(post *models.Post) PostDocument {
	return PostDocument{
		Title:   post.Title,
		Intro:   post.Intro,
		Body:    StripTags(post.Body),
		Publish: post.Publish,
		Status:  string(post.Status),
	}
}

// DocumentID is the index identifier of a post
func DocumentID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// StripTags returns the visible text of an HTML fragment: every non-empty
// text run, trimmed, joined by a single space. Script and style contents
// are dropped.
func StripTags(fragment string) string {
	if fragment == "" {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var parts []string
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			if isRawTextTag(tokenizer) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(tokenizer) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
