package engine

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegionsStable(t *testing.T) {
	a := DefaultRegions()
	b := DefaultRegions()

	require.Equal(t, a, b, "region table must be deterministic")
	assert.Len(t, a, 19)

	// Priorities are unique and ordered with the table.
	seen := make(map[int]string)
	for i, r := range a {
		prev, dup := seen[r.Priority]
		require.False(t, dup, "priority %d shared by %s and %s", r.Priority, prev, r.Name)
		seen[r.Priority] = r.Name
		assert.Equal(t, i, r.Priority, "table order carries the priority ranking")
	}
}

func TestRegionRect(t *testing.T) {
	tests := []struct {
		name     string
		region   Region
		width    int
		height   int
		expected image.Rectangle
	}{
		{
			name:     "Left bottom",
			region:   Region{X0: 0, Y0: 0.75, X1: 0.3, Y1: 1},
			width:    100,
			height:   200,
			expected: image.Rect(0, 150, 30, 200),
		},
		{
			name:     "Full bottom band",
			region:   Region{X0: 0, Y0: 0.85, X1: 1, Y1: 1},
			width:    640,
			height:   480,
			expected: image.Rect(0, 408, 640, 480),
		},
		{
			name:     "Top right corner",
			region:   Region{X0: 0.7, Y0: 0, X1: 1, Y1: 0.3},
			width:    100,
			height:   100,
			expected: image.Rect(70, 0, 100, 30),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.region.Rect(tc.width, tc.height))
		})
	}
}

func TestCropRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 200))
	region := Region{Name: "left_bottom", X0: 0, Y0: 0.75, X1: 0.3, Y1: 1}

	t.Run("No upscale", func(t *testing.T) {
		cropped := CropRegion(img, region, 1.0)
		require.NotNil(t, cropped)
		assert.Equal(t, 30, cropped.Bounds().Dx())
		assert.Equal(t, 50, cropped.Bounds().Dy())
	})

	t.Run("Upscaled", func(t *testing.T) {
		cropped := CropRegion(img, region, 3.0)
		require.NotNil(t, cropped)
		assert.Equal(t, 90, cropped.Bounds().Dx())
		assert.Equal(t, 150, cropped.Bounds().Dy())
	})

	t.Run("Degenerate image", func(t *testing.T) {
		tiny := image.NewRGBA(image.Rect(0, 0, 0, 0))
		assert.Nil(t, CropRegion(tiny, region, 1.0))
	})
}
