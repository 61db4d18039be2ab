// Package naming derives table names, route segments and display labels
// from Go identifiers.
package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "ManufacturerID" → "manufacturer_id", "LicenseNumber" → "license_number".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Plural returns the English plural of a snake_case word, pluralising only
// the last segment: "car_driver" → "car_drivers".
func Plural(word string) string {
	return inflection.Plural(word)
}

// TableName converts a type name to its snake_case plural table name.
// e.g. "Car" -> "cars", "SessionValue" -> "session_values"
func TableName(typeName string) string {
	return Plural(CamelToSnake(typeName))
}

// Humanize turns a snake_case or CamelCase name into a sentence-case label:
// "license_number" → "License number", "ManufacturerID" → "Manufacturer id".
func Humanize(name string) string {
	if strings.ContainsFunc(name, unicode.IsUpper) {
		name = CamelToSnake(name)
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	if len(words) == 0 {
		return ""
	}
	label := strings.Join(words, " ")
	r := []rune(label)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Title returns the English title-case form of a label: "car list" → "Car List".
func Title(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}
