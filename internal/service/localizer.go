package service

import (
	"embed"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/muratoffalex/ytscribe/internal/transcript"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Localizer renders user-facing messages. The caller's Accept-Language wins,
// the configured interface language is the fallback.
type Localizer struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
}

func NewLocalizer(defaultLang string) (*Localizer, error) {
	localesDir := "locales"
	lang, err := language.Parse(defaultLang)
	if err != nil {
		return nil, err
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := localeFS.ReadDir(localesDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".toml") {
			continue
		}

		data, err := localeFS.ReadFile(localesDir + "/" + file.Name())
		if err != nil {
			return nil, err
		}

		if _, err := bundle.ParseMessageFileBytes(data, file.Name()); err != nil {
			return nil, err
		}
	}

	return &Localizer{
		bundle:      bundle,
		defaultLang: lang,
	}, nil
}

// Localize returns messageID itself when no translation exists.
func (s *Localizer) Localize(acceptLanguage, messageID string, data map[string]any) string {
	localizer := i18n.NewLocalizer(s.bundle, acceptLanguage, s.defaultLang.String())
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

func (s *Localizer) Hint(acceptLanguage string, hint transcript.Hint) string {
	return s.Localize(acceptLanguage, "hint_"+string(hint), nil)
}

func (s *Localizer) Languages() []string {
	tags := s.bundle.LanguageTags()
	langs := make([]string, len(tags))
	for i, tag := range tags {
		langs[i] = tag.String()
	}
	return langs
}
