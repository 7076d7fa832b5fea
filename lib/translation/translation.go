package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the locale catalogue for lang from path. Missing catalogues
// are fine: Translate then returns the message id itself.
func Configure(path, lang string) {
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	gotext.Configure(path, strings.ToLower(lang), "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

// Translate looks msgID up in the catalogue and formats it with vars
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
