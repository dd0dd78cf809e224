package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// MoveFile moves src into destDir under name, creating the directory if
// needed. A cross-device rename falls back to copy and remove. Lock-style
// conflicts are reported as retryable so the caller can ask the user to
// close the file and try again.
func MoveFile(src, destDir, name string) (string, error) {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", &FileMoveError{Path: src, Err: err}
	}

	dst := filepath.Join(destDir, name)
	err := os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if copyErr := copyAndRemove(src, dst); copyErr != nil {
			return "", &FileMoveError{Path: src, Err: copyErr, Retryable: isLockConflict(copyErr)}
		}
		return dst, nil
	}

	return "", &FileMoveError{Path: src, Err: err, Retryable: isLockConflict(err)}
}

func isLockConflict(err error) bool {
	return errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.ETXTBSY) ||
		errors.Is(err, os.ErrPermission)
}

func copyAndRemove(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // operator-supplied path
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640) //nolint:gosec
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
