package util

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestDebugEnabled_False(t *testing.T) {
	t.Setenv(EnvDebug, "")
	assert.False(t, DebugEnabled(), "debug should be false")
}

func TestDebugEnabled_True(t *testing.T) {
	t.Setenv(EnvDebug, "true")

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	})
	log.Debug("debug logging test")

	assert.True(t, DebugEnabled(), "debug should be true")
}

func TestFlag(t *testing.T) {
	tests := map[string]bool{
		"1":     true,
		" TRUE": true,
		"false": false,
		"maybe": false,
		"  ":    false,
	}
	for v, want := range tests {
		t.Setenv(EnvHttpTrace, v)
		assert.Equal(t, want, HttpTraceEnabled(), v)
	}
}

func TestGetEnvOrSkip(t *testing.T) {
	t.Setenv("IDP_UTIL_TEST", " value ")
	v, ok := GetEnvOrSkip("IDP_UTIL_TEST")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	t.Setenv("IDP_UTIL_TEST", "")
	_, ok = GetEnvOrSkip("IDP_UTIL_TEST")
	assert.False(t, ok)
}

func TestMergeTemplate(t *testing.T) {
	out, err := MergeTemplate("{{ .Name | upper }} {{ join .Items \",\" }}", map[string]any{
		"Name":  "idp",
		"Items": []string{"A", "B"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "IDP A,B", string(out))

	_, err = MergeTemplate("{{ .Missing", nil)
	assert.Error(t, err)
}
