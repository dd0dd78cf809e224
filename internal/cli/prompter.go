// Package cli implements the interactive prompts used during imports.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/plugin"
)

// Prompter asks the user the questions an import can raise: naming an
// unknown account and retrying a blocked archive move.
type Prompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewPrompter creates a prompter over the given streams.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// Resolve asks for a nickname for an account number the ledger has never
// seen. Entering the nickname of an existing account links the number to it.
func (p *Prompter) Resolve(ctx context.Context, accountNum string, meta plugin.Metadata) (string, error) {
	fmt.Fprintf(p.writer, "\nNew account found in a %s %s:\n", meta.Company, meta.StatementType)
	fmt.Fprintf(p.writer, "  Account number: %s\n", accountNum)
	fmt.Fprintf(p.writer, "Enter a nickname for this account (reuse an existing nickname to link): ")

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		line, err := p.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read nickname: %w", err)
		}
		nickname := strings.TrimSpace(line)
		if nickname != "" {
			return nickname, nil
		}
		fmt.Fprintf(p.writer, "Nickname cannot be empty, try again: ")
	}
}

// ConfirmRetry asks whether to retry moving a file that appears locked.
func (p *Prompter) ConfirmRetry(path string, reason error) bool {
	fmt.Fprintf(p.writer, "\nCould not move %s: %v\n", path, reason)
	fmt.Fprintf(p.writer, "Close any program holding the file open, then retry? [y/N]: ")

	line, err := p.reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// NonInteractiveResolver refuses to name accounts; imports that hit an
// unknown account number fail with a clear error instead of hanging a
// scripted run waiting for input.
type NonInteractiveResolver struct{}

// Resolve always reports that interactive resolution is required.
func (NonInteractiveResolver) Resolve(_ context.Context, accountNum string, _ plugin.Metadata) (string, error) {
	return "", fmt.Errorf("account number %q is unknown: %w", accountNum, common.ErrAccountResolutionRequired)
}

// NonInteractiveConfirmer never retries a blocked move.
type NonInteractiveConfirmer struct{}

// ConfirmRetry always declines.
func (NonInteractiveConfirmer) ConfirmRetry(string, error) bool {
	return false
}
