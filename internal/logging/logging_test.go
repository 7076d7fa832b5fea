package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	require.NoError(t, Setup(Config{Level: "WARN", Format: "json"}, false))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	require.NoError(t, Setup(Config{Level: "error"}, true))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	assert.Error(t, Setup(Config{Level: "loud"}, false))
	assert.Error(t, Setup(Config{Format: "xml"}, false))
}
