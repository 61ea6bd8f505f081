package models

import (
	"regexp"
	"time"

	"github.com/lib/pq"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Template is a pre-approved outbound message pattern. Templates are the
// only way to re-open contact once the 24h session window has closed; the
// engine reads them, it never edits them.
type Template struct {
	// Name is the unique template identifier registered with the provider.
	Name string `gorm:"primaryKey" json:"name"`
	// Category is the provider-side template category (e.g. "MARKETING").
	Category string `gorm:"type:text" json:"category"`
	// Language is the template locale code (e.g. "es", "en_US").
	Language string `gorm:"type:text" json:"language"`
	// Body is the template text with {{variable}} placeholders.
	Body string `gorm:"type:text;not null" json:"body"`
	// Variables lists the placeholder names appearing in Body.
	Variables pq.StringArray `gorm:"type:text[]" json:"variables"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Render substitutes {{variable}} placeholders with the given values.
// Placeholders without a value are left verbatim so the omission is visible.
func (t *Template) Render(values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(t.Body, func(ph string) string {
		name := placeholderRe.FindStringSubmatch(ph)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return ph
	})
}

// PlaceholderNames extracts the distinct placeholder names from a body, in
// order of first appearance.
func PlaceholderNames(body string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
