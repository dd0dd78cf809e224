package model

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Statement represents one imported statement file. Some institutions bundle
// several products in a single document, so a statement carries one or more
// accounts. ContentMD5 and ArchivedPath are attached by the import
// orchestrator; a statement is never mutated after persistence.
type Statement struct {
	StartDate    time.Time
	EndDate      time.Time
	Accounts     []Account
	SourcePath   string
	ArchivedPath string
	ContentMD5   string
	PluginID     string
}

// HashFile computes the md5 fingerprint of a file's contents, used to detect
// byte-identical re-imports.
func HashFile(path string) (string, error) {
	contents, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fmt.Sprintf("%x", md5.Sum(contents)), nil //nolint:gosec
}

// ArchiveFilename derives the canonical name a statement file is archived
// under: institution nickname, statement date range, original suffix. Two
// exports of the same statement period collapse to the same name even when
// their bytes differ.
func (s *Statement) ArchiveFilename(nickname string) string {
	const fnameDate = "20060102"
	name := strings.Join([]string{
		sanitizeFilename(nickname),
		s.StartDate.Format(fnameDate),
		s.EndDate.Format(fnameDate),
	}, "_")
	return name + strings.ToLower(filepath.Ext(s.SourcePath))
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
