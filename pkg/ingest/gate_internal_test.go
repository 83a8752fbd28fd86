package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPreviewTrimsOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the preview limit; the cut must land
	// on the rune's start, not inside it.
	body := strings.Repeat("a", 119) + "é" + strings.Repeat("b", 50)

	got := preview(body)
	assert.Equal(t, strings.Repeat("a", 119), got)
	assert.True(t, utf8.ValidString(got))
}

func TestPreviewKeepsShortBodies(t *testing.T) {
	assert.Equal(t, "Vous avez reçu 5000 FCFA", preview("Vous avez reçu 5000 FCFA"))
}
