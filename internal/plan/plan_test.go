package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultCatalog()))
}

func TestCatalogGet(t *testing.T) {
	catalog := DefaultCatalog()

	p, err := catalog.Get(Creator)
	require.NoError(t, err)
	assert.Equal(t, int64(1999), p.PriceCents)
	assert.Equal(t, 20, p.Credits.Video)
	assert.Equal(t, 100, p.Credits.Image)
	assert.Equal(t, 1, p.Limits.BrandKits)
	assert.Contains(t, p.Features, "Brand kit")

	_, err = catalog.Get("enterprise")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestCatalogPlansCarryFeatureLists(t *testing.T) {
	for _, p := range DefaultCatalog().Plans {
		assert.NotEmptyf(t, p.Features, "plan %s has no feature list", p.ID)
	}
}

func TestCatalogDefaultIsFree(t *testing.T) {
	p := DefaultCatalog().Default()
	assert.Equal(t, Free, p.ID)
	assert.Equal(t, int64(0), p.PriceCents)
	assert.Equal(t, 5, p.Credits.Video)
	assert.Equal(t, 20, p.Credits.Image)
}

func TestCatalogAspectRatio(t *testing.T) {
	catalog := DefaultCatalog()

	ratio, ok := catalog.AspectRatio("tiktok")
	require.True(t, ok)
	assert.Equal(t, "9:16", ratio)

	ratio, ok = catalog.AspectRatio("linkedin")
	require.True(t, ok)
	assert.Equal(t, "1.91:1", ratio)

	_, ok = catalog.AspectRatio("myspace")
	assert.False(t, ok)
}

func TestValidateRejectsBrokenCatalogs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Catalog)
	}{
		{
			name:   "no plans",
			mutate: func(c *Catalog) { c.Plans = nil },
		},
		{
			name: "missing free plan",
			mutate: func(c *Catalog) {
				c.Plans = c.Plans[1:]
			},
		},
		{
			name: "duplicate plan id",
			mutate: func(c *Catalog) {
				c.Plans = append(c.Plans, c.Plans[0])
			},
		},
		{
			name: "negative video credits",
			mutate: func(c *Catalog) {
				c.Plans[1].Credits.Video = -1
			},
		},
		{
			name: "zero user limit",
			mutate: func(c *Catalog) {
				c.Plans[2].Limits.Users = 0
			},
		},
		{
			name: "negative price",
			mutate: func(c *Catalog) {
				c.Plans[3].PriceCents = -100
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := DefaultCatalog()
			tt.mutate(&catalog)
			assert.Error(t, Validate(catalog))
		})
	}
}

func TestStaticHolder(t *testing.T) {
	catalog := DefaultCatalog()
	holder := NewStaticHolder(catalog)
	got := holder.Get()
	assert.Len(t, got.Plans, 4)
	assert.Equal(t, "south_east", got.Watermark.Gravity)
}
