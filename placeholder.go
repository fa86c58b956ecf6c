package dynamotools

import "regexp"

// TableNamePlaceholder is replaced with the configured table name
const TableNamePlaceholder = "%TABLENAME%"

var placeholderPattern = regexp.MustCompile(`%\w+%`)

// ReplacePlaceholders substitutes every %WORD% token found in replacements.
// Tokens with no mapping, or mapped to an empty string, are left verbatim.
func ReplacePlaceholders(src string, replacements map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(src, func(token string) string {
		if value, ok := replacements[token]; ok && value != "" {
			return value
		}
		return token
	})
}

// ReplacePlaceholders substitutes %TABLENAME% and any WithPlaceholders tokens
func (t *Tools) ReplacePlaceholders(src string) string {
	return ReplacePlaceholders(src, t.placeholders)
}
