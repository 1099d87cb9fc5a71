package models

import "time"

// Article is a published piece of content.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle"`
	Description string    `json:"description"`
	Content     *string   `json:"content"`
	ImageURL    string    `json:"imageUrl"`
	AuthorID    *int64    `json:"authorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ArticleInput carries the fields of a new article.
type ArticleInput struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Description string  `json:"description"`
	Content     *string `json:"content"`
	ImageURL    string  `json:"imageUrl"`
}

// ArticlePatch is a partial update; absent fields are left unchanged.
// Content sent as null or as an empty string clears the stored content.
type ArticlePatch struct {
	Title       Optional[string] `json:"title"`
	Subtitle    Optional[string] `json:"subtitle"`
	Description Optional[string] `json:"description"`
	Content     Optional[string] `json:"content"`
	ImageURL    Optional[string] `json:"imageUrl"`
}

// ClearsContent reports whether the patch removes the stored content.
func (p ArticlePatch) ClearsContent() bool {
	return p.Content.Null || (p.Content.Set && p.Content.Value == "")
}

// Apply merges p into a copy of a and returns it. Timestamps are untouched.
// Null values for the required fields are ignored; callers validate them.
func (p ArticlePatch) Apply(a Article) Article {
	if p.Title.HasValue() {
		a.Title = p.Title.Value
	}
	if p.Subtitle.HasValue() {
		a.Subtitle = p.Subtitle.Value
	}
	if p.Description.HasValue() {
		a.Description = p.Description.Value
	}
	if p.ImageURL.HasValue() {
		a.ImageURL = p.ImageURL.Value
	}
	switch {
	case p.ClearsContent():
		a.Content = nil
	case p.Content.Set:
		a.Content = p.Content.Ptr()
	}
	return a
}

// NextUpdatedAt returns the updatedAt to stamp on a mutation at now: now
// itself, or one microsecond past prev when the clock has not advanced.
// Microseconds match the Postgres timestamp resolution.
func NextUpdatedAt(prev, now time.Time) time.Time {
	now = now.Truncate(time.Microsecond)
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
