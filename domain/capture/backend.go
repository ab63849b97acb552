package capture

import "time"

// Mapped exposes a staging buffer mapped for CPU reads. Data is valid only
// until the matching Unmap; RowPitch may exceed width*4 (row padding) and
// SliceSize is the total mapped length (RowPitch * rows).
type Mapped struct {
	Data      []byte
	RowPitch  int
	SliceSize int
}

// Backend is the display-duplication collaborator. Open resolves the given
// adapter/output pair, creates the duplication handle and a CPU-readable
// staging buffer sized to the full output resolution (fixed for the session;
// mid-session resolution changes are unsupported), and returns a Duplicator
// for the capture cycle. Invalid indices fail with ErrDeviceNotFound.
type Backend interface {
	Open(adapterIndex, outputIndex int) (Duplicator, error)
}

// Duplicator drives one acquire/copy/map/release cycle per frame. It is used
// from a single worker goroutine; implementations need no internal locking.
type Duplicator interface {
	// Bounds reports the output resolution the staging buffer was sized to.
	Bounds() (width, height int)
	// AcquireFrame blocks up to timeout for the next frame. ErrNoFrame means
	// nothing changed on screen; any other error is fatal for the session.
	AcquireFrame(timeout time.Duration) error
	// CopyToStaging copies the acquired frame into the staging buffer.
	CopyToStaging() error
	// MapRead maps the staging buffer for CPU access.
	MapRead() (Mapped, error)
	// Unmap invalidates the slice returned by MapRead.
	Unmap() error
	// ReleaseFrame hands the acquired frame back to the backend. Must be
	// called once per successful AcquireFrame, even if the cycle failed.
	ReleaseFrame() error
	// Close releases all backend resources in reverse-acquisition order.
	Close() error
}
