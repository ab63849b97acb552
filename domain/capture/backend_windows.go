//go:build windows

package capture

// Windows duplication backend built on GDI. Open creates a memory DC with a
// top-down 32-bit DIB section as the session staging buffer; each cycle
// BitBlt's the screen into it. The DIB stores pixels in B,G,R,A order with
// rowPitch = width*4, so mapped reads need no conversion.

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	smCxScreen   = 0
	smCyScreen   = 1
	srccopy      = 0x00CC0020
	dibRGBColors = 0
	biRgb        = 0

	// GDI has no frame-arrival signal; pace acquires near display cadence.
	gdiFrameInterval = 16 * time.Millisecond
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGdiFlush           = gdi32.NewProc("GdiFlush")
)

// BITMAPINFO structures (Win32 layout).
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte // one RGBQUAD placeholder (unused for 32-bit)
}

type gdiBackend struct{}

// NewGDIBackend returns the GDI display-duplication backend. Only the
// primary adapter/output pair (0,0) is addressable through GDI.
func NewGDIBackend() Backend { return gdiBackend{} }

// DefaultBackend returns the platform capture backend.
func DefaultBackend() Backend { return NewGDIBackend() }

func (gdiBackend) Open(adapterIndex, outputIndex int) (Duplicator, error) {
	if adapterIndex != 0 || outputIndex != 0 {
		return nil, fmt.Errorf("%w: adapter=%d output=%d (gdi exposes only 0/0)", ErrDeviceNotFound, adapterIndex, outputIndex)
	}

	w := int(getSystemMetric(smCxScreen))
	h := int(getSystemMetric(smCyScreen))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid screen size w=%d h=%d", ErrDeviceNotFound, w, h)
	}

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("capture: GetDC failed winerr=%v", windows.GetLastError())
	}

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		procReleaseDC.Call(0, screenDC)
		return nil, fmt.Errorf("capture: CreateCompatibleDC failed winerr=%v", windows.GetLastError())
	}

	// Top-down 32-bit DIB: the session-lifetime staging buffer.
	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bitsPtr unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bitsPtr)), 0, 0)
	if bmp == 0 {
		procDeleteDC.Call(memDC)
		procReleaseDC.Call(0, screenDC)
		return nil, fmt.Errorf("capture: CreateDIBSection failed winerr=%v", windows.GetLastError())
	}

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) { // failure or GDI_ERROR
		procDeleteObject.Call(bmp)
		procDeleteDC.Call(memDC)
		procReleaseDC.Call(0, screenDC)
		return nil, fmt.Errorf("capture: SelectObject failed winerr=%v", windows.GetLastError())
	}

	return &gdiDuplicator{
		screenDC:   screenDC,
		memDC:      memDC,
		bitmap:     bmp,
		prevBitmap: prev,
		bits:       bitsPtr,
		width:      w,
		height:     h,
	}, nil
}

type gdiDuplicator struct {
	screenDC    uintptr
	memDC       uintptr
	bitmap      uintptr
	prevBitmap  uintptr
	bits        unsafe.Pointer
	width       int
	height      int
	lastAcquire time.Time
	closed      bool
}

func (d *gdiDuplicator) Bounds() (int, int) { return d.width, d.height }

func (d *gdiDuplicator) AcquireFrame(timeout time.Duration) error {
	if d.closed {
		return fmt.Errorf("capture: duplicator closed")
	}
	wait := gdiFrameInterval - time.Since(d.lastAcquire)
	if wait > timeout {
		wait = timeout
	}
	if wait > 0 {
		time.Sleep(wait)
	}
	d.lastAcquire = time.Now()
	return nil
}

func (d *gdiDuplicator) CopyToStaging() error {
	ok, _, _ := procBitBlt.Call(d.memDC, 0, 0, uintptr(d.width), uintptr(d.height), d.screenDC, 0, 0, srccopy)
	if ok == 0 {
		return fmt.Errorf("capture: BitBlt failed w=%d h=%d winerr=%v", d.width, d.height, windows.GetLastError())
	}
	return nil
}

func (d *gdiDuplicator) MapRead() (Mapped, error) {
	if d.bits == nil {
		return Mapped{}, fmt.Errorf("capture: staging buffer not available")
	}
	// Flush batched GDI ops before the CPU reads the DIB bits.
	procGdiFlush.Call()
	pitch := d.width * 4
	size := pitch * d.height
	return Mapped{
		Data:      unsafe.Slice((*byte)(d.bits), size),
		RowPitch:  pitch,
		SliceSize: size,
	}, nil
}

// The DIB section is permanently CPU-visible; map/unmap and frame release
// are no-ops for GDI.
func (d *gdiDuplicator) Unmap() error        { return nil }
func (d *gdiDuplicator) ReleaseFrame() error { return nil }

func (d *gdiDuplicator) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	// Reverse-acquisition order.
	procSelectObject.Call(d.memDC, d.prevBitmap)
	procDeleteObject.Call(d.bitmap)
	procDeleteDC.Call(d.memDC)
	procReleaseDC.Call(0, d.screenDC)
	d.bits = nil
	return nil
}

func getSystemMetric(idx int) int32 {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return int32(v)
}
