package resource

import (
	"fmt"
	"regexp"
	"strings"
)

// FallbackLang is consulted whenever the requested language has no value.
const FallbackLang = "en"

var langCode = regexp.MustCompile(`^[a-z]{2}$`)

type Column struct {
	Name         string
	Multilingual bool
}

// Registry lists, per table, the columns to project when a language is applied.
// Tables missing from the registry are selected with "*".
type Registry map[string][]Column

func plain(name string) Column { return Column{Name: name} }
func i18n(name string) Column  { return Column{Name: name, Multilingual: true} }

var DefaultRegistry = Registry{
	"animals": {
		plain("id"), i18n("name"), i18n("description"), i18n("category"),
		plain("slug"), plain("wikiUrl"), plain("imageAspectRatio"),
	},
	"frameSpecifications": {
		plain("id"), i18n("name"), i18n("description"),
		plain("slug"), plain("frameWidthCm"), plain("frameHeightCm"),
		plain("imageAreaWidthCm"), plain("imageAreaHeightCm"),
		plain("matOpeningWidthCm"), plain("matOpeningHeightCm"),
	},
	"frameMaterials": {
		plain("id"), i18n("name"), i18n("material"), i18n("color"), i18n("style"),
		plain("slug"), plain("priceMultiplier"), plain("cssBackground"),
	},
	"products": {
		plain("id"), i18n("name"), i18n("description"),
		plain("quantity"), plain("price"), plain("slug"), plain("categories"),
	},
}

// Lang returns lang when it is a two letter code and the fallback otherwise, so
// the result is always safe to splice into a JSON path literal.
func Lang(lang string) string {
	if langCode.MatchString(lang) {
		return lang
	}
	return FallbackLang
}

// Localized resolves a language-keyed JSON column expression to a single string.
func Localized(expr, lang string) string {
	return fmt.Sprintf("COALESCE(JSON_EXTRACT(%s, '$.%s'), JSON_EXTRACT(%s, '$.%s'))",
		expr, Lang(lang), expr, FallbackLang)
}

func (r Registry) IsMultilingual(table, column string) bool {
	for _, c := range r[table] {
		if c.Name == column {
			return c.Multilingual
		}
	}
	return false
}

// SelectFrom builds "SELECT <projection> FROM <table>". table must already be
// allow-listed.
func (r Registry) SelectFrom(table, lang string) string {
	cols, ok := r[table]
	if !ok {
		return "SELECT * FROM " + table
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		if c.Multilingual {
			parts[i] = Localized(c.Name, lang) + " AS " + c.Name
			continue
		}
		parts[i] = c.Name
	}

	return "SELECT " + strings.Join(parts, ", ") + " FROM " + table
}
