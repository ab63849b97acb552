package frame

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Pixels are stored as 4 bytes in B,G,R,A order.
const bytesPerPixel = 4

var (
	// ErrOutOfRange reports a pixel or region query outside the frame bounds.
	// Coordinates are never clamped; callers get the error instead.
	ErrOutOfRange = errors.New("frame: coordinate out of range")
	// ErrFrameReleased reports access to a view after the capture cycle that
	// produced it has released the underlying buffer.
	ErrFrameReleased = errors.New("frame: view accessed after release")
	// ErrInconsistentFrame reports a buffer too small for the geometry the
	// backend declared (bad row pitch or slice size).
	ErrInconsistentFrame = errors.New("frame: buffer inconsistent with geometry")
)

// Color is an RGB triple. Captured frames carry an alpha byte but matching is
// RGB-only, so alpha is read and dropped.
type Color struct {
	R, G, B uint8
}

// Point is a pixel coordinate. Search results are region-relative.
type Point struct {
	X, Y int
}

// NotFound is the sentinel returned by FindPixel when no pixel in the region
// matches. It is a result value, not an error.
var NotFound = Point{X: -1, Y: -1}

// Region is a sub-rectangle of a frame. All fields are non-negative and
// X+Width / Y+Height must stay within the frame.
type Region struct {
	X, Y, Width, Height int
}

// View is a borrowed window over one captured frame's staging buffer.
//
// A view is only valid inside the subscriber callback it was delivered to:
// the capture session revokes it as soon as all callbacks return, after which
// every accessor fails with ErrFrameReleased. Subscribers must not retain a
// view or its buffer beyond the callback.
type View struct {
	data     []byte
	rowPitch int
	width    int
	height   int
	region   Region
	released atomic.Bool
}

// NewView wraps a mapped staging buffer. Width derives from the row pitch and
// height from the slice size, so rows may include padding pixels past the
// visible output width. region describes the captured desktop rectangle.
func NewView(data []byte, rowPitch, sliceSize int, region Region) *View {
	v := &View{data: data, rowPitch: rowPitch, region: region}
	if rowPitch >= bytesPerPixel {
		v.width = rowPitch / bytesPerPixel
		v.height = sliceSize / rowPitch
	}
	return v
}

// Width reports the addressable pixels per row (rowPitch/4).
func (v *View) Width() int { return v.width }

// Height reports the number of rows (sliceSize/rowPitch).
func (v *View) Height() int { return v.height }

// Region reports the desktop rectangle this frame was captured from.
func (v *View) Region() Region { return v.region }

// Release revokes the view. Any later pixel access fails with
// ErrFrameReleased. Called by the capture session when the cycle that
// produced this frame hands the buffer back to the backend.
func (v *View) Release() { v.released.Store(true) }

// Contains reports whether (x,y) lies inside [0,Width) x [0,Height).
func (v *View) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < v.width && y < v.height
}

// GetPixel returns the color at (x,y). The alpha byte is read but dropped.
func (v *View) GetPixel(x, y int) (Color, error) {
	if v.released.Load() {
		return Color{}, ErrFrameReleased
	}
	if !v.Contains(x, y) {
		return Color{}, fmt.Errorf("%w: pixel (%d,%d) outside %dx%d", ErrOutOfRange, x, y, v.width, v.height)
	}
	off := bytesPerPixel*x + v.rowPitch*y
	if off < 0 || off+bytesPerPixel > len(v.data) {
		return Color{}, fmt.Errorf("%w: offset %d for (%d,%d) exceeds %d bytes", ErrInconsistentFrame, off, x, y, len(v.data))
	}
	return Color{B: v.data[off], G: v.data[off+1], R: v.data[off+2]}, nil
}

// PixelMatch reports whether the pixel at (x,y) matches want within a
// per-channel tolerance: |R-r|, |G-g| and |B-b| must each be <= tolerance.
// Bounds behavior is identical to GetPixel.
func (v *View) PixelMatch(x, y int, want Color, tolerance uint8) (bool, error) {
	got, err := v.GetPixel(x, y)
	if err != nil {
		return false, err
	}
	return within(got.R, want.R, tolerance) &&
		within(got.G, want.G, tolerance) &&
		within(got.B, want.B, tolerance), nil
}

// FindPixel scans region for the first pixel matching want within tolerance
// and returns its region-relative coordinates, or NotFound.
//
// Scan order is column-major: x outer, y inner. With several matching pixels
// the one first reached in that order wins; callers rely on this.
func (v *View) FindPixel(want Color, region Region, tolerance uint8) (Point, error) {
	if v.released.Load() {
		return NotFound, ErrFrameReleased
	}
	if err := v.checkRegion(region); err != nil {
		return NotFound, err
	}
	for rx := 0; rx < region.Width; rx++ {
		for ry := 0; ry < region.Height; ry++ {
			ok, err := v.PixelMatch(region.X+rx, region.Y+ry, want, tolerance)
			if err != nil {
				return NotFound, err
			}
			if ok {
				return Point{X: rx, Y: ry}, nil
			}
		}
	}
	return NotFound, nil
}

// checkRegion validates a region strictly against the frame bounds.
func (v *View) checkRegion(r Region) error {
	if r.X < 0 || r.Y < 0 || r.X >= v.width || r.Y >= v.height {
		return fmt.Errorf("%w: region origin (%d,%d) outside %dx%d", ErrOutOfRange, r.X, r.Y, v.width, v.height)
	}
	if r.Width < 0 || r.Height < 0 || r.Width > v.width-r.X || r.Height > v.height-r.Y {
		return fmt.Errorf("%w: region %dx%d at (%d,%d) exceeds %dx%d", ErrOutOfRange, r.Width, r.Height, r.X, r.Y, v.width, v.height)
	}
	return nil
}

func within(a, b, tolerance uint8) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= int(tolerance)
}
