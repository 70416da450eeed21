package recolor

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/san-kum/verletsim/internal/physics"
)

// MinImageSide is the smallest image side accepted as a world.
const MinImageSide = 16

var (
	ErrImageTooLarge = errors.New("recolor: image exceeds 16-bit coordinate range")
	ErrImageTooSmall = errors.New("recolor: image too small")
)

// LoadImage decodes a PNG, JPEG, GIF, BMP or WebP file and checks that its
// bounds can serve as solver bounds.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := CheckBounds(img.Bounds()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// CheckBounds rejects rectangles that are too large for the grid or too
// small to be worth filling.
func CheckBounds(r image.Rectangle) error {
	w, h := r.Dx(), r.Dy()
	if max(w, h) > physics.MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, w, h)
	}
	if min(w, h) < MinImageSide {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, w, h)
	}
	return nil
}

// Bounds returns the solver bounds matching an image.
func Bounds(img image.Image) physics.Vec2 {
	r := img.Bounds()
	return physics.Vec2{X: float64(r.Dx()), Y: float64(r.Dy())}
}
