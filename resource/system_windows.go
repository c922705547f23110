package resource

// SystemUpdater returns the native updater of the current platform.
func SystemUpdater() Updater {
	return Kernel32Updater{}
}
