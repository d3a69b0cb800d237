package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"TAQUILLA_API_URL", "TAQUILLA_HTTP_TIMEOUT", "TAQUILLA_MAX_ATTEMPTS", "TAQUILLA_DEBUG", "TAQUILLA_DEV_ADDR", "TAQUILLA_CACHE_TTL", "TAQUILLA_WHATSAPP"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "http://localhost:3000/api", cfg.API.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxAttempts)
	assert.Equal(t, ":3000", cfg.Dev.Addr)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Purchase.WhatsApp)
	assert.False(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TAQUILLA_API_URL", "https://boleteria.example/api/")
	t.Setenv("TAQUILLA_HTTP_TIMEOUT", "30")
	t.Setenv("TAQUILLA_MAX_ATTEMPTS", "bogus")
	t.Setenv("TAQUILLA_DEBUG", "true")
	t.Setenv("TAQUILLA_CACHE_TTL", "90s")
	t.Setenv("TAQUILLA_WHATSAPP", " +598 99 123 456 ")

	cfg := Load()
	assert.Equal(t, "https://boleteria.example/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxAttempts)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "+598 99 123 456", cfg.Purchase.WhatsApp)
}
