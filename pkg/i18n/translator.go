package i18n

import (
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when an unsupported language is requested.
const DefaultLanguage = "en"

// Translator resolves dot-separated message keys against per-language
// catalogs. It is safe for concurrent use.
type Translator struct {
	translations map[string]map[string]any
	defaultLang  string
	mu           sync.RWMutex
}

// Option configures a Translator.
type Option func(*Translator)

// WithDefaultLanguage sets the language used when a requested language has
// no catalog.
func WithDefaultLanguage(lang string) Option {
	return func(t *Translator) {
		if lang != "" {
			t.defaultLang = lang
		}
	}
}

// NewTranslator parses a YAML catalog keyed by language code and returns a
// Translator. See translations.yaml for the expected shape.
func NewTranslator(catalog []byte, opts ...Option) (*Translator, error) {
	var data map[string]map[string]any
	if err := yaml.Unmarshal(catalog, &data); err != nil {
		return nil, ErrInvalidCatalog
	}
	for lang, m := range data {
		if lang == "" || m == nil {
			return nil, ErrInvalidCatalog
		}
	}

	t := &Translator{
		translations: data,
		defaultLang:  DefaultLanguage,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// NewDefaultTranslator returns a Translator loaded with the embedded en/vi
// catalogs used by the notification and OTP components.
func NewDefaultTranslator(opts ...Option) (*Translator, error) {
	return NewTranslator(embeddedCatalog, opts...)
}

// SupportedLanguages returns the language codes with a catalog present.
func (t *Translator) SupportedLanguages() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	langs := make([]string, 0, len(t.translations))
	for lang := range t.translations {
		langs = append(langs, lang)
	}
	return langs
}

// T translates a key for the given language, substituting %{name}
// placeholders with the provided key-value argument pairs. An unknown
// language falls back to the default language; an unknown key falls back to
// the key itself so a missing translation never blanks the UI.
//
//	t.T("en", "otp.resend_after", "seconds", "42")
func (t *Translator) T(lang, key string, args ...string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	langMap, ok := t.translations[lang]
	if !ok {
		langMap, ok = t.translations[t.defaultLang]
		if !ok {
			return substitute(key, args)
		}
	}

	val, ok := lookup(langMap, key)
	if !ok {
		return substitute(key, args)
	}

	s, ok := val.(string)
	if !ok {
		// Key points at a subtree, not a leaf.
		return substitute(key, args)
	}
	return substitute(s, args)
}

// lookup traverses a nested map using dot-separated keys, so
// "otp.resend_after" resolves m["otp"]["resend_after"].
func lookup(m map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	current := m

	for i, part := range parts {
		if i == len(parts)-1 {
			val, ok := current[part]
			return val, ok
		}

		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

var paramRegex = regexp.MustCompile(`%\{([^}]+)\}`)

// substitute replaces %{name} placeholders using key-value pairs from args.
// An odd trailing argument is ignored; unknown placeholders are left intact.
func substitute(tmpl string, args []string) string {
	if len(args) < 2 {
		return tmpl
	}

	params := make(map[string]string, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		params[args[i]] = args[i+1]
	}

	return paramRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := params[name]; ok {
			return val
		}
		return match
	})
}
