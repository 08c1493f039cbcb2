package types

import "fmt"

// Language is the output language requested from the inference provider
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageChinese  Language = "zh"
	LanguageJapanese Language = "ja"
)

// AllLanguages returns all supported languages
func AllLanguages() []Language {
	return []Language{
		LanguageEnglish,
		LanguageChinese,
		LanguageJapanese,
	}
}

// IsValid checks if the language is supported
func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish,
		LanguageChinese,
		LanguageJapanese:
		return true
	default:
		return false
	}
}

// String returns the string representation of the language
func (l Language) String() string {
	return string(l)
}

// ParseLanguage parses a string into a Language. Empty input means English.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return LanguageEnglish, nil
	}
	lang := Language(s)
	if !lang.IsValid() {
		return "", fmt.Errorf("unsupported language: %s", s)
	}
	return lang, nil
}
