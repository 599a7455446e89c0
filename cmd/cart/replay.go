package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kingrea/cartstate/internal/cart"
)

// replay reads one JSON action envelope per line and dispatches each in
// order. Blank lines and lines starting with # are skipped. A bad line is
// reported and skipped; it never stops the rest of the file.
func replay(r io.Reader, dispatch func(cart.Action) error) (int, []error) {
	applied := 0
	var failures []error
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		action, err := cart.DecodeAction([]byte(line))
		if err != nil {
			failures = append(failures, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		if err := dispatch(action); err != nil {
			failures = append(failures, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		failures = append(failures, fmt.Errorf("read replay: %w", err))
	}
	return applied, failures
}
