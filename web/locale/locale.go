package locale

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/maintainview/maintainview/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var (
	i18nBundle   *i18n.Bundle
	LocalizerWeb *i18n.Localizer
)

type I18nType string

const (
	Web I18nType = "web"
)

// InitLocalizer parses the embedded translation bundle, defaulting to
// Japanese (the portal's primary audience) with an English fallback.
func InitLocalizer(i18nFS embed.FS) error {
	i18nBundle = i18n.NewBundle(language.MustParse("ja-JP"))
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	return parseTranslationFiles(i18nFS, i18nBundle)
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	var sep string = "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		templateData[parts[0]] = parts[1]
	}

	return templateData
}

// I18n resolves a translated message, with "key==value" template parameters.
func I18n(i18nType I18nType, key string, params ...string) string {
	if i18nType != Web {
		logger.Errorf("Invalid type for I18n: %s", i18nType)
		return ""
	}

	localizer := LocalizerWeb
	if localizer == nil {
		// Fallback to key if localizer not ready; prevents nil panic
		return key
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Errorf("Failed to localize message: %v", err)
		return key
	}

	return msg
}

// LocalizerMiddleware picks the request language from the "lang" cookie or
// the Accept-Language header.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string

		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		LocalizerWeb = i18n.NewLocalizer(i18nBundle, lang)

		c.Set("localizer", LocalizerWeb)
		c.Set("I18n", I18n)
		c.Next()
	}
}

func parseTranslationFiles(i18nFS embed.FS, i18nBundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation",
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			data, err := i18nFS.ReadFile(path)
			if err != nil {
				return err
			}

			_, err = i18nBundle.ParseMessageFileBytes(data, path)
			return err
		})
}
