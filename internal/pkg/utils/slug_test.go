package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "graphics-design", Slugify("Graphics & Design"))
	assert.Equal(t, "logo-design", Slugify("  Logo Design  "))
	assert.Equal(t, "web-3-0", Slugify("Web 3.0!"))
	assert.Equal(t, "", Slugify("  &&&  "))
}

func TestSlugifyAll(t *testing.T) {
	got := SlugifyAll([]string{"Logo Design", "  ", "SEO Writing"})
	assert.Equal(t, []string{"logo-design", "seo-writing"}, got)

	assert.Empty(t, SlugifyAll(nil))
}
