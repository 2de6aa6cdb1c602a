// Package i18n provides localized user-facing messages.
//
// Unlike a global current-language setting, every lookup takes an explicit
// language tag: turns for different sessions run concurrently and may use
// different languages within the same process.
package i18n

import (
	"fmt"
	"strings"
	"unicode"
)

// Supported languages.
const (
	LangEN = "en"
	LangZH = "zh"
)

// messages stores all translations, keyed by language then message key.
var messages = map[string]map[string]string{
	LangEN: englishMessages,
	LangZH: chineseMessages,
}

// Normalize maps common language tag variations to a supported language.
// Unknown tags fall back to English.
func Normalize(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "zh", "zh-cn", "zh_cn", "zh-tw", "zh_tw", "zh-hans", "zh-hant", "chinese":
		return LangZH
	case "en", "en-us", "en_gb", "english":
		return LangEN
	default:
		return LangEN
	}
}

// Detect guesses the message language from its content.
// Any CJK rune marks the message as Chinese; everything else is English.
func Detect(message string) string {
	for _, r := range message {
		if unicode.Is(unicode.Han, r) {
			return LangZH
		}
	}
	return LangEN
}

// T returns the translated message for the given key.
// Falls back to English when the translation is missing, and to the key
// itself when no translation exists at all.
func T(lang, key string) string {
	if msg, ok := messages[Normalize(lang)][key]; ok {
		return msg
	}
	if msg, ok := messages[LangEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf returns the translated and formatted message.
func Sprintf(lang, key string, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}

// Supported returns the list of supported language codes.
func Supported() []string {
	return []string{LangEN, LangZH}
}
