package i18n

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/multibot/resources"
)

var placeholder = regexp.MustCompile(`%[.0-9]*[a-z]|\{\{[^}]*\}\}`)

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		key  string
		lang string
		want string
	}{
		{"source language", "Settings", "en", "Settings"},
		{"translated", "Settings", "ru", "Настройки"},
		{"upper case code", "Back", "RU", "Назад"},
		{"unknown key", "no such key", "ru", "no such key"},
		{"unsupported language", "Settings", "xx", "Settings"},
		{"empty language", "Settings", "", "Settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(tt.key, tt.lang))
		})
	}
}

func TestDefaultLanguage(t *testing.T) {
	defer SetDefaultLanguage("en")

	SetDefaultLanguage("ru")
	assert.Equal(t, "ru", DefaultLanguage())
	assert.Equal(t, "Назад", Get("Back", ""))

	SetDefaultLanguage("xx")
	assert.Equal(t, "ru", DefaultLanguage())
}

func TestTranslationsKeepPlaceholders(t *testing.T) {
	t.Parallel()

	for _, lang := range GetLanguagesList() {
		if lang == sourceLanguage {
			continue
		}
		raw, err := resources.FS.ReadFile("i18n/" + lang + ".yml")
		require.NoError(t, err, lang)

		translations := map[string]string{}
		require.NoError(t, yaml.Unmarshal(raw, &translations), lang)
		require.NotEmpty(t, translations)

		for key, value := range translations {
			assert.NotEmpty(t, value, "%s: %q", lang, key)
			assert.ElementsMatch(t, placeholder.FindAllString(key, -1), placeholder.FindAllString(value, -1), "%s: %q", lang, key)
		}
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"en", "ru"}, GetLanguagesList())
	assert.True(t, IsSupported("RU"))
	assert.False(t, IsSupported("de"))
	assert.Equal(t, "Русский", GetLanguageName("ru"))
	assert.Equal(t, "de", GetLanguageName("de"))
}
