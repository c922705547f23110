package resource

import (
	"os"

	"github.com/kozakscript/bundler"
	"github.com/kozakscript/bundler/icon"
)

// NativeStrategy writes the icon directly into the resource table of the executable.
// Every image is stored as an RT_ICON resource named by its 1-based index,
// followed by a single RT_GROUP_ICON resource referencing them.
type NativeStrategy struct {
	Updater Updater
	Logger  PrintlnFunc
}

// Apply updates the icon resources of the executable.
//
// A session that cannot be opened, an icon group that cannot be registered or a failed commit
// result in an error of kind bundler.KindResource; a malformed icon file in bundler.KindFormat.
// Images that cannot be registered are reported as warnings.
func (s *NativeStrategy) Apply(exePath, iconPath string) ([]error, error) {
	logger := s.Logger.orDiscard()
	logger("Applying icon using native resource update: %s", iconPath)

	session, err := s.Updater.Begin(exePath)
	if err != nil {
		return nil, bundler.Errorf(bundler.KindResource, "cannot open executable for resource update: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = session.Discard()
		}
	}()

	ico, err := os.ReadFile(iconPath)
	if err != nil {
		return nil, bundler.Errorf(bundler.KindFormat, "cannot read icon file: %w", err)
	}
	images, err := icon.Parse(ico)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, bundler.Errorf(bundler.KindFormat, "icon file %q contains no images", iconPath)
	}
	logger("  * ICO contains %d image(s)", len(images))

	var warnings []error
	for i, img := range images {
		data, err := icon.ImageData(ico, img)
		if err == nil {
			err = session.Update(TypeIcon, icon.ImageID(i), LangNeutral, data)
		}
		if err != nil {
			w := bundler.Errorf(bundler.KindWarning, "failed to update icon %d: %w", i+1, err)
			warnings = append(warnings, w)
			logger("[WARNING] %s", w)
			continue
		}
		width, height := img.Pixels()
		logger("  * Icon %d: %dx%d, %d bpp, %d bytes", i+1, width, height, img.BitCount, img.Size)
	}

	if err := session.Update(TypeGroupIcon, GroupID, LangNeutral, icon.BuildGroup(images)); err != nil {
		return warnings, bundler.Errorf(bundler.KindResource, "failed to update icon group: %w", err)
	}

	closed = true
	if err := session.Commit(); err != nil {
		return warnings, bundler.Errorf(bundler.KindResource, "failed to commit resource updates: %w", err)
	}
	return warnings, nil
}
