package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/alnah/go-transclude"
)

// Sentinel errors for the copytext command.
var (
	ErrNoCopyAttr    = errors.New("no element in the selection has a copy attribute")
	ErrReadSelection = errors.New("failed to read selection")
)

// maxSelectionBytes bounds the selection read from stdin.
const maxSelectionBytes = 1 << 20

// runCopyText prints the copy text of the HTML selection read from stdin.
func runCopyText(args []string, env *Environment) error {
	if len(args) > 0 {
		if args[0] == "-h" || args[0] == "--help" {
			printCopyTextUsage(env.Stdout)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnexpectedArgs, args)
	}

	data, err := io.ReadAll(io.LimitReader(env.Stdin, maxSelectionBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSelection, err)
	}

	text, custom, err := transclude.CopyText(string(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSelection, err)
	}
	if !custom {
		return ErrNoCopyAttr
	}

	fmt.Fprint(env.Stdout, text)
	return nil
}
