package engine

import (
	"image"

	"github.com/disintegration/imaging"
)

// Region is a named sub-rectangle of the image in fractional coordinates,
// with a priority rank (lower = more likely to contain the answer). The
// priority is only a tie-break signal between equally ranked candidates;
// every region is always scanned.
type Region struct {
	Name     string
	X0       float64
	Y0       float64
	X1       float64
	Y1       float64
	Priority int
}

// Rect maps the fractional coordinates onto a concrete image size.
func (r Region) Rect(width, height int) image.Rectangle {
	return image.Rect(
		int(r.X0*float64(width)),
		int(r.Y0*float64(height)),
		int(r.X1*float64(width)),
		int(r.Y1*float64(height)),
	)
}

// DefaultRegions returns the static, ordered region table. The regions
// overlap on purpose: the answer text wanders between datasets and the
// redundancy buys recall. Order and priorities are fixed configuration,
// never derived at runtime.
func DefaultRegions() []Region {
	return []Region{
		// Left-bottom placements, by far the most common.
		{Name: "left_bottom", X0: 0, Y0: 0.75, X1: 0.3, Y1: 1, Priority: 0},
		{Name: "left_bottom_large", X0: 0, Y0: 0.7, X1: 0.4, Y1: 1, Priority: 1},
		{Name: "left_bottom_small", X0: 0, Y0: 0.8, X1: 0.25, Y1: 1, Priority: 2},

		// Right-bottom placements.
		{Name: "right_bottom", X0: 0.7, Y0: 0.75, X1: 1, Y1: 1, Priority: 3},
		{Name: "right_bottom_large", X0: 0.6, Y0: 0.7, X1: 1, Y1: 1, Priority: 4},
		{Name: "right_bottom_small", X0: 0.75, Y0: 0.8, X1: 1, Y1: 1, Priority: 5},
		{Name: "right_bottom_extended", X0: 0.5, Y0: 0.75, X1: 1, Y1: 1, Priority: 6},

		// Bottom band.
		{Name: "center_bottom", X0: 0.3, Y0: 0.8, X1: 0.7, Y1: 1, Priority: 7},
		{Name: "full_bottom", X0: 0, Y0: 0.85, X1: 1, Y1: 1, Priority: 8},
		{Name: "full_bottom_large", X0: 0, Y0: 0.8, X1: 1, Y1: 1, Priority: 9},

		// Side strips.
		{Name: "left_side", X0: 0, Y0: 0.5, X1: 0.3, Y1: 1, Priority: 10},
		{Name: "left_side_large", X0: 0, Y0: 0.4, X1: 0.4, Y1: 1, Priority: 11},
		{Name: "right_side", X0: 0.7, Y0: 0.5, X1: 1, Y1: 1, Priority: 12},
		{Name: "right_side_large", X0: 0.6, Y0: 0.4, X1: 1, Y1: 1, Priority: 13},
		{Name: "right_side_extended", X0: 0.5, Y0: 0.3, X1: 1, Y1: 1, Priority: 14},

		// Corners, for the rare datasets that print the answer at the top.
		{Name: "top_left", X0: 0, Y0: 0, X1: 0.3, Y1: 0.3, Priority: 15},
		{Name: "top_right", X0: 0.7, Y0: 0, X1: 1, Y1: 0.3, Priority: 16},
		{Name: "bottom_left", X0: 0, Y0: 0.7, X1: 0.3, Y1: 1, Priority: 17},
		{Name: "bottom_right", X0: 0.7, Y0: 0.7, X1: 1, Y1: 1, Priority: 18},
	}
}

// CropRegion cuts the region out of the image and optionally upscales it.
// Returns nil when the region degenerates to an empty rectangle, which the
// caller treats as "nothing to recognize" for that region.
func CropRegion(img image.Image, region Region, upscale float64) image.Image {
	bounds := img.Bounds()
	rect := region.Rect(bounds.Dx(), bounds.Dy()).Add(bounds.Min)
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return nil
	}

	cropped := imaging.Crop(img, rect)
	if upscale > 1.0 {
		w := int(float64(cropped.Bounds().Dx()) * upscale)
		h := int(float64(cropped.Bounds().Dy()) * upscale)
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return cropped
}
