package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate_FallsBackToMessageID(t *testing.T) {
	Configure(t.TempDir(), "en")

	assert.Equal(t, "You have no alerts to remove.", Translate("You have no alerts to remove."))
	assert.Equal(t, "The current price of BTC is €1.00", Translate("The current price of %s is €%s", "BTC", "1.00"))
	assert.Equal(t, "en", GetLanguage())
}
