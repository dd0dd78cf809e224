package router

import (
	"fmt"
	"os"

	"github.com/tbrownhe/guibank/internal/plugin"
)

// readOFX hands the raw file bytes through. OFX is already machine-readable;
// the plugin owns the SGML/XML parsing, matching just needs the plain text.
func readOFX(path string) (*plugin.Input, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &plugin.Input{
		Text: string(raw),
		Raw:  raw,
	}, nil
}
