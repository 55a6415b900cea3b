package entity

import (
	"strings"
	"unicode/utf8"
)

// NotFound marks an article field the extractor could not locate.
const NotFound = "Не найдено"

// Article is the structured result of extracting a page.
type Article struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

func NewArticle(title, date, content string) *Article {
	return &Article{
		Title:   orNotFound(title),
		Date:    orNotFound(date),
		Content: orNotFound(content),
	}
}

// HasContent reports whether the extractor produced any body text.
func (a *Article) HasContent() bool {
	return a.Content != NotFound && strings.TrimSpace(a.Content) != ""
}

// ContentLength returns the trimmed content length in characters.
func (a *Article) ContentLength() int {
	return utf8.RuneCountInString(strings.TrimSpace(a.Content))
}

func orNotFound(s string) string {
	if s == "" {
		return NotFound
	}
	return s
}
