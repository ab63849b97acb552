//go:build !windows

package capture

// Portable duplication backend built on github.com/vova616/screenshot. Each
// acquire grabs the full screen as RGBA; the copy step converts into the
// session's BGRA staging buffer so views see the same byte order on every
// platform.

import (
	"fmt"
	"image"
	"time"

	"github.com/vova616/screenshot"
)

// The screenshot library cannot signal "no screen update"; pace acquires
// near display cadence instead.
const screenshotFrameInterval = 16 * time.Millisecond

type screenshotBackend struct{}

// NewScreenshotBackend returns the portable capture backend. Only the
// primary adapter/output pair (0,0) is supported.
func NewScreenshotBackend() Backend { return screenshotBackend{} }

// DefaultBackend returns the platform capture backend.
func DefaultBackend() Backend { return NewScreenshotBackend() }

func (screenshotBackend) Open(adapterIndex, outputIndex int) (Duplicator, error) {
	if adapterIndex != 0 || outputIndex != 0 {
		return nil, fmt.Errorf("%w: adapter=%d output=%d (screenshot backend exposes only 0/0)", ErrDeviceNotFound, adapterIndex, outputIndex)
	}
	rect, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("%w: query screen bounds: %v", ErrDeviceNotFound, err)
	}
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid screen size w=%d h=%d", ErrDeviceNotFound, w, h)
	}
	return &screenshotDuplicator{
		width:   w,
		height:  h,
		staging: make([]byte, w*h*4),
	}, nil
}

type screenshotDuplicator struct {
	width       int
	height      int
	staging     []byte
	pending     *image.RGBA
	lastAcquire time.Time
	closed      bool
}

func (d *screenshotDuplicator) Bounds() (int, int) { return d.width, d.height }

func (d *screenshotDuplicator) AcquireFrame(timeout time.Duration) error {
	if d.closed {
		return fmt.Errorf("capture: duplicator closed")
	}
	wait := screenshotFrameInterval - time.Since(d.lastAcquire)
	if wait > timeout {
		wait = timeout
	}
	if wait > 0 {
		time.Sleep(wait)
	}
	d.lastAcquire = time.Now()

	img, err := screenshot.CaptureScreen()
	if err != nil {
		return fmt.Errorf("capture: grab screen: %w", err)
	}
	if b := img.Bounds(); b.Dx() != d.width || b.Dy() != d.height {
		// Resolution changed mid-session; unsupported.
		return fmt.Errorf("capture: output geometry changed from %dx%d to %dx%d", d.width, d.height, b.Dx(), b.Dy())
	}
	d.pending = img
	return nil
}

func (d *screenshotDuplicator) CopyToStaging() error {
	if d.pending == nil {
		return fmt.Errorf("capture: no acquired frame to copy")
	}
	src := d.pending
	pitch := d.width * 4
	for y := 0; y < d.height; y++ {
		srcRow := src.Pix[y*src.Stride:]
		dstRow := d.staging[y*pitch:]
		for x := 0; x < d.width; x++ {
			i := x * 4
			dstRow[i+0] = srcRow[i+2] // B
			dstRow[i+1] = srcRow[i+1] // G
			dstRow[i+2] = srcRow[i+0] // R
			dstRow[i+3] = srcRow[i+3] // A
		}
	}
	return nil
}

func (d *screenshotDuplicator) MapRead() (Mapped, error) {
	if d.staging == nil {
		return Mapped{}, fmt.Errorf("capture: staging buffer not available")
	}
	return Mapped{
		Data:      d.staging,
		RowPitch:  d.width * 4,
		SliceSize: len(d.staging),
	}, nil
}

func (d *screenshotDuplicator) Unmap() error { return nil }

func (d *screenshotDuplicator) ReleaseFrame() error {
	d.pending = nil
	return nil
}

func (d *screenshotDuplicator) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.pending = nil
	d.staging = nil
	return nil
}
