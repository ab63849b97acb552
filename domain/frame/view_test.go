package frame

import (
	"errors"
	"testing"
)

// buildBuffer creates a BGRA buffer of h rows with the given row pitch and
// lets a mutate function set pixels before the view is constructed.
func buildBuffer(rowPitch, h int, mutate func(buf []byte)) []byte {
	buf := make([]byte, rowPitch*h)
	if mutate != nil {
		mutate(buf)
	}
	return buf
}

// setBGRA writes one pixel at (x,y) in storage order.
func setBGRA(buf []byte, rowPitch, x, y int, b, g, r, a byte) {
	off := 4*x + rowPitch*y
	buf[off] = b
	buf[off+1] = g
	buf[off+2] = r
	buf[off+3] = a
}

// newTestView wraps a buffer with rowPitch covering w pixels exactly.
func newTestView(w, h int, mutate func(buf []byte)) *View {
	pitch := w * 4
	buf := buildBuffer(pitch, h, mutate)
	return NewView(buf, pitch, len(buf), Region{Width: w, Height: h})
}

func TestViewGeometryFromPitch(t *testing.T) {
	// 10 visible pixels but pitch padded to 12 pixels worth of bytes.
	pitch := 48
	buf := buildBuffer(pitch, 5, nil)
	v := NewView(buf, pitch, len(buf), Region{Width: 10, Height: 5})
	if v.Width() != 12 {
		t.Fatalf("width = %d, want 12 (rowPitch/4)", v.Width())
	}
	if v.Height() != 5 {
		t.Fatalf("height = %d, want 5 (sliceSize/rowPitch)", v.Height())
	}
	if r := v.Region(); r.Width != 10 || r.Height != 5 || r.X != 0 || r.Y != 0 {
		t.Fatalf("region = %+v, want {0 0 10 5}", r)
	}
}

func TestGetPixelReadsBGROrder(t *testing.T) {
	v := newTestView(4, 4, func(buf []byte) {
		setBGRA(buf, 16, 2, 1, 10, 20, 30, 99)
	})
	c, err := v.GetPixel(2, 1)
	if err != nil {
		t.Fatalf("GetPixel: %v", err)
	}
	if c != (Color{R: 30, G: 20, B: 10}) {
		t.Fatalf("color = %+v, want {30 20 10}", c)
	}
}

func TestGetPixelOutOfRange(t *testing.T) {
	v := newTestView(4, 3, nil)
	for _, p := range []Point{{-1, 0}, {0, -1}, {4, 0}, {0, 3}, {4, 3}} {
		if _, err := v.GetPixel(p.X, p.Y); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("GetPixel(%d,%d) err = %v, want ErrOutOfRange", p.X, p.Y, err)
		}
		if v.Contains(p.X, p.Y) {
			t.Fatalf("Contains(%d,%d) = true, want false", p.X, p.Y)
		}
	}
	if !v.Contains(3, 2) {
		t.Fatal("Contains(3,2) = false, want true")
	}
}

func TestGetPixelInconsistentBuffer(t *testing.T) {
	// Pitch claims 4 pixels per row but the buffer is one row short.
	buf := make([]byte, 16*2)
	v := NewView(buf, 16, 16*3, Region{Width: 4, Height: 3})
	if v.Height() != 3 {
		t.Fatalf("height = %d, want 3", v.Height())
	}
	if _, err := v.GetPixel(0, 2); !errors.Is(err, ErrInconsistentFrame) {
		t.Fatalf("err = %v, want ErrInconsistentFrame", err)
	}
}

func TestPixelMatchChebyshevTolerance(t *testing.T) {
	v := newTestView(2, 2, func(buf []byte) {
		setBGRA(buf, 8, 0, 0, 100, 150, 200, 255)
	})
	cases := []struct {
		want      Color
		tolerance uint8
		match     bool
	}{
		{Color{R: 200, G: 150, B: 100}, 0, true},
		{Color{R: 201, G: 150, B: 100}, 0, false},
		{Color{R: 205, G: 145, B: 103}, 5, true},
		{Color{R: 205, G: 144, B: 100}, 5, false}, // one channel over
		{Color{R: 0, G: 0, B: 0}, 255, true},
	}
	for _, tc := range cases {
		got, err := v.PixelMatch(0, 0, tc.want, tc.tolerance)
		if err != nil {
			t.Fatalf("PixelMatch(%+v, tol=%d): %v", tc.want, tc.tolerance, err)
		}
		if got != tc.match {
			t.Fatalf("PixelMatch(%+v, tol=%d) = %v, want %v", tc.want, tc.tolerance, got, tc.match)
		}
	}
	if _, err := v.PixelMatch(5, 0, Color{}, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestFindPixelSingleMatch(t *testing.T) {
	v := newTestView(8, 8, func(buf []byte) {
		setBGRA(buf, 32, 5, 6, 0, 0, 255, 255) // pure red at (5,6)
	})
	p, err := v.FindPixel(Color{R: 255}, Region{X: 3, Y: 4, Width: 5, Height: 4}, 0)
	if err != nil {
		t.Fatalf("FindPixel: %v", err)
	}
	// Region-relative offset of (5,6) inside a region anchored at (3,4).
	if p != (Point{X: 2, Y: 2}) {
		t.Fatalf("point = %+v, want {2 2}", p)
	}
}

func TestFindPixelNoMatch(t *testing.T) {
	v := newTestView(6, 6, nil)
	p, err := v.FindPixel(Color{R: 1}, Region{Width: 6, Height: 6}, 0)
	if err != nil {
		t.Fatalf("FindPixel: %v", err)
	}
	if p != NotFound {
		t.Fatalf("point = %+v, want NotFound", p)
	}
}

func TestFindPixelColumnMajorOrder(t *testing.T) {
	// Two matches: (2,5) and (4,1). Column-major (x outer, y inner) reaches
	// the x=2 column before x=4, so (2,5) wins despite the larger y.
	v := newTestView(8, 8, func(buf []byte) {
		setBGRA(buf, 32, 2, 5, 0, 255, 0, 255)
		setBGRA(buf, 32, 4, 1, 0, 255, 0, 255)
	})
	p, err := v.FindPixel(Color{G: 255}, Region{Width: 8, Height: 8}, 0)
	if err != nil {
		t.Fatalf("FindPixel: %v", err)
	}
	if p != (Point{X: 2, Y: 5}) {
		t.Fatalf("point = %+v, want {2 5} (column-major first match)", p)
	}
}

func TestFindPixelRegionValidation(t *testing.T) {
	v := newTestView(10, 10, nil)
	bad := []Region{
		{X: -1, Y: 0, Width: 1, Height: 1},
		{X: 0, Y: -1, Width: 1, Height: 1},
		{X: 10, Y: 0, Width: 1, Height: 1},
		{X: 0, Y: 10, Width: 1, Height: 1},
		{X: 0, Y: 0, Width: -1, Height: 1},
		{X: 0, Y: 0, Width: 1, Height: -1},
		{X: 6, Y: 0, Width: 5, Height: 1}, // width > 10-6
		{X: 0, Y: 6, Width: 1, Height: 5}, // height > 10-6
	}
	for _, r := range bad {
		if _, err := v.FindPixel(Color{}, r, 0); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("region %+v err = %v, want ErrOutOfRange", r, err)
		}
	}
	// Zero-size region at a valid origin scans nothing.
	p, err := v.FindPixel(Color{}, Region{X: 2, Y: 2}, 0)
	if err != nil {
		t.Fatalf("zero region: %v", err)
	}
	if p != NotFound {
		t.Fatalf("zero region point = %+v, want NotFound", p)
	}
}

func TestReleasedViewRejectsAccess(t *testing.T) {
	v := newTestView(4, 4, nil)
	v.Release()
	if _, err := v.GetPixel(0, 0); !errors.Is(err, ErrFrameReleased) {
		t.Fatalf("GetPixel err = %v, want ErrFrameReleased", err)
	}
	if _, err := v.PixelMatch(0, 0, Color{}, 0); !errors.Is(err, ErrFrameReleased) {
		t.Fatalf("PixelMatch err = %v, want ErrFrameReleased", err)
	}
	if _, err := v.FindPixel(Color{}, Region{Width: 1, Height: 1}, 0); !errors.Is(err, ErrFrameReleased) {
		t.Fatalf("FindPixel err = %v, want ErrFrameReleased", err)
	}
}

// Full-resolution scenario: 1920x1080 BGRA, rowPitch 7680, pure green at (0,0).
func TestFullHDGreenPixelScenario(t *testing.T) {
	const pitch = 7680
	buf := buildBuffer(pitch, 1080, func(buf []byte) {
		setBGRA(buf, pitch, 0, 0, 0, 255, 0, 255)
	})
	v := NewView(buf, pitch, len(buf), Region{Width: 1920, Height: 1080})
	if v.Width() != 1920 || v.Height() != 1080 {
		t.Fatalf("geometry = %dx%d, want 1920x1080", v.Width(), v.Height())
	}
	c, err := v.GetPixel(0, 0)
	if err != nil {
		t.Fatalf("GetPixel: %v", err)
	}
	if c != (Color{R: 0, G: 255, B: 0}) {
		t.Fatalf("color = %+v, want {0 255 0}", c)
	}
	if ok, _ := v.PixelMatch(0, 0, Color{R: 0, G: 255, B: 0}, 0); !ok {
		t.Fatal("PixelMatch exact green = false, want true")
	}
	if ok, _ := v.PixelMatch(0, 0, Color{R: 10, G: 255, B: 0}, 0); ok {
		t.Fatal("PixelMatch r=10 tol=0 = true, want false")
	}
}
