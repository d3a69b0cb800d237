package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Screen X":         "screenx",
		"screenx":          "screenx",
		"  MACRO\tXE \n":   "macroxe",
		"Balcón Izquierdo": "balcónizquierdo",
		"4DX":              "4dx",
		"Platea Baja":      "plateabaja",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), "NormalizeKey(%q)", in)
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	for _, s := range []string{"Screen X", "VIP ", "Balcón Derecho", " a B c ", "ÁÉÍ óú", "tradicional"} {
		once := NormalizeKey(s)
		assert.Equal(t, once, NormalizeKey(once))
	}
}
