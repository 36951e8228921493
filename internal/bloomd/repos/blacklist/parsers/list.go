// Package parsers reads newline-delimited URL lists.
package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/bloomd/internal/bloomd/common/log"
)

// MaxLineBytes bounds a single list entry.
const MaxLineBytes = 1 << 20

// ReadList parses one URL per line.
//
// Behavior:
// - Trims surrounding whitespace, including a trailing carriage return
// - Strips a leading byte order mark on the first line
// - Skips empty lines
// - De-duplicates while preserving first-seen order
//
// URLs are opaque: no comment syntax is recognized because '#' is a valid
// fragment character.
func ReadList(r io.Reader, source string, logger logpkg.Logger) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	seen := make(map[string]struct{})
	out := make([]string, 0, 256)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		url := strings.TrimSpace(line)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			logger.Debug(map[string]any{"source": source, "line": lineNum, "url": url}, "skip_duplicate")
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn(map[string]any{"source": source, "line": lineNum, "error": err.Error()}, "read_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "read_list_done")
	return out, nil
}

// WriteList writes urls one per line.
func WriteList(w io.Writer, urls []string) error {
	for _, u := range urls {
		if _, err := io.WriteString(w, u); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
