package identity

import (
	"errors"
	"io/fs"
	"os"
)

// renamePortable checks for the target before renaming. Another process can
// still create the target between the two calls; platforms with an atomic
// no-replace rename use that instead.
func renamePortable(from, to string) error {
	if _, err := os.Lstat(to); err == nil {
		return &os.LinkError{Op: "rename", Old: from, New: to, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(from, to)
}
