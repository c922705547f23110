package resource

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procBeginUpdateResourceW = modkernel32.NewProc("BeginUpdateResourceW")
	procUpdateResourceW      = modkernel32.NewProc("UpdateResourceW")
	procEndUpdateResourceW   = modkernel32.NewProc("EndUpdateResourceW")
)

// Kernel32Updater updates resources through the Windows resource update API.
type Kernel32Updater struct{}

func (Kernel32Updater) Begin(exePath string) (Session, error) {
	// EndUpdateResource drops data appended to the image, it is restored after committing.
	exe, err := os.ReadFile(exePath)
	if err != nil {
		return nil, err
	}
	name, err := windows.UTF16PtrFromString(exePath)
	if err != nil {
		return nil, err
	}
	h, _, callErr := procBeginUpdateResourceW.Call(uintptr(unsafe.Pointer(name)), 0)
	if h == 0 {
		return nil, fmt.Errorf("BeginUpdateResourceW: %w", callErr)
	}
	return &kernel32Session{path: exePath, handle: h, overlay: peOverlay(exe)}, nil
}

type kernel32Session struct {
	path    string
	handle  uintptr
	overlay []byte
	closed  bool
}

func (s *kernel32Session) Update(typ, id, lang uint16, data []byte) error {
	if s.closed {
		return errSessionClosed
	}
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	// Integer resource types and names are passed as MAKEINTRESOURCE values.
	r, _, callErr := procUpdateResourceW.Call(s.handle, uintptr(typ), uintptr(id), uintptr(lang), uintptr(ptr), uintptr(len(data)))
	if r == 0 {
		return fmt.Errorf("UpdateResourceW: %w", callErr)
	}
	return nil
}

func (s *kernel32Session) end(discard bool) error {
	if s.closed {
		return errSessionClosed
	}
	s.closed = true
	var d uintptr
	if discard {
		d = 1
	}
	r, _, callErr := procEndUpdateResourceW.Call(s.handle, d)
	if r == 0 {
		return fmt.Errorf("EndUpdateResourceW: %w", callErr)
	}
	return nil
}

func (s *kernel32Session) Commit() error {
	if err := s.end(false); err != nil {
		return err
	}
	image, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	restored := withOverlay(image, s.overlay)
	if len(restored) == len(image) {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	_, err = f.Write(s.overlay)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *kernel32Session) Discard() error {
	return s.end(true)
}
