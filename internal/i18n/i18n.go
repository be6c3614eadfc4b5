package i18n

import (
	"fmt"
	"path"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/multibot/resources"
)

const (
	sourceLanguage = "en"
	resourcesPath  = "i18n"
)

var state = struct {
	mu              sync.RWMutex
	translations    map[string]map[string]string
	loaded          map[string]bool
	defaultLanguage string
}{
	translations:    make(map[string]map[string]string),
	loaded:          make(map[string]bool),
	defaultLanguage: sourceLanguage,
}

// SetDefaultLanguage sets the fallback for unknown or empty language codes.
func SetDefaultLanguage(lang string) {
	if !IsSupported(lang) {
		log.WithField("language", lang).Warn("unsupported default language, keeping current")
		return
	}
	state.mu.Lock()
	state.defaultLanguage = strings.ToLower(lang)
	state.mu.Unlock()
}

func DefaultLanguage() string {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.defaultLanguage
}

func load(lang string) map[string]string {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.loaded[lang] {
		return state.translations[lang]
	}
	state.loaded[lang] = true

	raw, err := resources.FS.ReadFile(path.Join(resourcesPath, fmt.Sprintf("%s.yml", lang)))
	if err != nil {
		log.WithError(err).WithField("language", lang).Errorln("cant load i18n")
		return nil
	}
	translations := make(map[string]string)
	if err := yaml.Unmarshal(raw, &translations); err != nil {
		log.WithError(err).WithField("language", lang).Errorln("cant unmarshal i18n")
		return nil
	}
	state.translations[lang] = translations
	return translations
}

// Get translates an English source string. Unknown keys come back unchanged.
func Get(key, lang string) string {
	lang = strings.ToLower(lang)
	if lang == "" || !IsSupported(lang) {
		lang = DefaultLanguage()
	}
	if lang == sourceLanguage {
		return key
	}
	state.mu.RLock()
	translations := state.translations[lang]
	loaded := state.loaded[lang]
	state.mu.RUnlock()
	if !loaded {
		translations = load(lang)
	}
	if res, ok := translations[key]; ok {
		return res
	}
	log.Tracef(`no translation for key "%s"`, key)
	return key
}
