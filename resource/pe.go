package resource

import (
	"bytes"
	"debug/pe"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tc-hib/winres"
)

// PEUpdater rewrites the resource section of PE executables without relying on the operating system.
type PEUpdater struct{}

func (PEUpdater) Begin(exePath string) (Session, error) {
	exe, err := os.ReadFile(exePath)
	if err != nil {
		return nil, err
	}
	if _, err := pe.NewFile(bytes.NewReader(exe)); err != nil {
		return nil, fmt.Errorf("not a PE image: %w", err)
	}
	rs, err := winres.LoadFromEXE(bytes.NewReader(exe))
	if err != nil {
		// Images without a resource section start from an empty set.
		rs = &winres.ResourceSet{}
	}
	return &peSession{path: exePath, exe: exe, rs: rs}, nil
}

type peSession struct {
	path   string
	exe    []byte
	rs     *winres.ResourceSet
	closed bool
}

func (s *peSession) Update(typ, id, lang uint16, data []byte) error {
	if s.closed {
		return errSessionClosed
	}
	return s.rs.Set(winres.ID(typ), winres.ID(id), lang, data)
}

func (s *peSession) Commit() error {
	if s.closed {
		return errSessionClosed
	}
	s.closed = true

	var buf bytes.Buffer
	if err := s.rs.WriteToEXE(&buf, bytes.NewReader(s.exe)); err != nil {
		return fmt.Errorf("write resources: %w", err)
	}
	image := withOverlay(buf.Bytes(), peOverlay(s.exe))

	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	_, err = tmp.Write(image)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *peSession) Discard() error {
	if s.closed {
		return errSessionClosed
	}
	s.closed = true
	s.exe, s.rs = nil, nil
	return nil
}
