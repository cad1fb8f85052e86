// Package stacktrace trims runtime stacks down to this module's frames.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame in
// a debug.Stack dump that belongs to an internal package.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// file lines look like "/abs/path/internal/x/y.go:42 +0x1d"
		idx := strings.Index(line, marker)
		if idx < 0 || !strings.Contains(line, ".go:") {
			continue
		}

		frame, _, _ := strings.Cut(line[idx+1:], " ")
		paths = append(paths, frame)
	}

	return paths
}
