package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	got := string(Render("**Mapa** cultural\n\n[site](https://example.org)"))
	assert.Contains(t, got, "<strong>Mapa</strong>")
	assert.Contains(t, got, `href="https://example.org"`)
	assert.Contains(t, got, `target="_blank"`)
}

func TestRenderDropsScripts(t *testing.T) {
	got := string(Render("oi <script>alert(1)</script>"))
	assert.NotContains(t, got, "<script")
	assert.Empty(t, Render("   "))
}

func TestPlain(t *testing.T) {
	assert.Equal(t, "Inscrições abertas", Plain("# Inscrições *abertas*"))
}
