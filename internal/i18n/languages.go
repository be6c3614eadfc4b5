package i18n

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"ru": "Русский",
}

// GetLanguagesList returns supported codes in display order.
func GetLanguagesList() []string {
	return []string{"en", "ru"}
}

func IsSupported(code string) bool {
	_, ok := languageNames[strings.ToLower(code)]
	return ok
}

func GetLanguageName(code string) string {
	normalized := strings.ToLower(code)
	if name, ok := languageNames[normalized]; ok {
		return name
	}
	return code
}
