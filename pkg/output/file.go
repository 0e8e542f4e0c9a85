package output

import (
	"bufio"
	"os"
	"path/filepath"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/windcloud/internal/types"
)

// WriteFile creates path through fill. The content is assembled under a
// temporary name in the same directory, synced and renamed into place, so
// path holds either its previous content or everything fill wrote. The
// directory is created if needed. Failures match types.ErrWrite.
func WriteFile(path string, fill func(w *bufio.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "create %s: %v", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "temp file in %s: %v", dir, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = fill(bw); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "%s: %v", path, err)
	}
	if err = bw.Flush(); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "flush %s: %v", tmp, err)
	}
	if err = f.Sync(); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "sync %s: %v", tmp, err)
	}
	if err = f.Close(); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "close %s: %v", tmp, err)
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "chmod %s: %v", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errorsmod.Wrapf(types.ErrWrite, "rename to %s: %v", path, err)
	}
	return nil
}
