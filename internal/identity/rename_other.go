//go:build !linux

package identity

func renameNoReplace(from, to string) error {
	return renamePortable(from, to)
}
