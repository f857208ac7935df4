package entities

import "fmt"

// Language identifies the spoken language of a submitted voice sample
type Language string

// Supported languages for voice verification
const (
	LanguageTamil     Language = "tamil"
	LanguageEnglish   Language = "english"
	LanguageHindi     Language = "hindi"
	LanguageMalayalam Language = "malayalam"
	LanguageTelugu    Language = "telugu"
)

// SupportedLanguages returns all languages the service accepts
func SupportedLanguages() []Language {
	return []Language{
		LanguageTamil,
		LanguageEnglish,
		LanguageHindi,
		LanguageMalayalam,
		LanguageTelugu,
	}
}

// ParseLanguage converts a request string into a Language
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageTamil, LanguageEnglish, LanguageHindi, LanguageMalayalam, LanguageTelugu:
		return Language(s), nil
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Valid reports whether the language is one of the supported set
func (l Language) Valid() bool {
	_, err := ParseLanguage(string(l))
	return err == nil
}
