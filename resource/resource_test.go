package resource

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type update struct {
	typ, id, lang uint16
	data          []byte
}

type fakeSession struct {
	updates   []update
	fail      func(typ, id uint16) error
	commitErr error
	commits   int
	discards  int
}

func (s *fakeSession) Update(typ, id, lang uint16, data []byte) error {
	if s.fail != nil {
		if err := s.fail(typ, id); err != nil {
			return err
		}
	}
	s.updates = append(s.updates, update{typ, id, lang, append([]byte(nil), data...)})
	return nil
}

func (s *fakeSession) Commit() error {
	s.commits++
	return s.commitErr
}

func (s *fakeSession) Discard() error {
	s.discards++
	return nil
}

type fakeUpdater struct {
	session  *fakeSession
	beginErr error
	paths    []string
}

func (u *fakeUpdater) Begin(exePath string) (Session, error) {
	u.paths = append(u.paths, exePath)
	if u.beginErr != nil {
		return nil, u.beginErr
	}
	return u.session, nil
}

var errFake = errors.New("fake failure")

// buildICO returns an icon file with one image per content slice.
func buildICO(images ...[]byte) []byte {
	ico := make([]byte, 6+16*len(images))
	binary.LittleEndian.PutUint16(ico[2:], 1)
	binary.LittleEndian.PutUint16(ico[4:], uint16(len(images)))
	for i, img := range images {
		e := ico[6+16*i:]
		e[0] = byte(16 * (i + 1))
		e[1] = byte(16 * (i + 1))
		binary.LittleEndian.PutUint16(e[4:], 1)
		binary.LittleEndian.PutUint16(e[6:], 32)
		binary.LittleEndian.PutUint32(e[8:], uint32(len(img)))
		binary.LittleEndian.PutUint32(e[12:], uint32(len(ico)))
		ico = append(ico, img...)
	}
	return ico
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}
