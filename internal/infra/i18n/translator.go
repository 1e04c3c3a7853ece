package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator renders catalog keys into user-facing text.
// Keys missing from the catalog render as the key itself so a
// misconfigured locale never swallows a notification.
type Translator struct {
	messages map[string]string
	lang     string
}

func NewTranslator(langCode string) (*Translator, error) {
	return newTranslatorFS(localeFS, langCode)
}

func newTranslatorFS(fsys fs.FS, langCode string) (*Translator, error) {
	b, err := fs.ReadFile(fsys, fmt.Sprintf("locales/%s.yaml", langCode))
	if err != nil {
		return nil, fmt.Errorf("load locale %q: %w", langCode, err)
	}
	messages := make(map[string]string)
	if err := yaml.Unmarshal(b, &messages); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", langCode, err)
	}
	return &Translator{messages: messages, lang: langCode}, nil
}

// T looks up key and formats it with args.
func (t *Translator) T(key string, args ...interface{}) string {
	msg, ok := t.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func (t *Translator) Lang() string { return t.lang }
