package main

import (
	"fmt"
	"io"
	"strings"

	textpkg "github.com/example/go-g2p/internal/text"
)

// readInputText picks --text, then positional args, then stdin.
func readInputText(text string, args []string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return textpkg.Normalize(text)
	}

	if len(args) > 0 {
		return textpkg.Normalize(strings.Join(args, " "))
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	input, err := textpkg.Normalize(string(b))
	if err != nil {
		return "", fmt.Errorf("either provide --text, arguments or pipe text on stdin: %w", err)
	}
	return input, nil
}
