// Package lists loads and saves the line-delimited text lists (institution
// names, keywords) the discovery tooling is driven by.
package lists

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a line-delimited list, trimming whitespace and skipping blank
// lines. A missing file is an error; callers that treat the list as optional
// should check os.IsNotExist.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening list %s: %w", path, err)
	}
	defer file.Close()

	var entries []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			entries = append(entries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading list %s: %w", path, err)
	}

	return entries, nil
}

// Save writes entries one per line, trimmed, with a trailing newline.
func Save(path string, entries []string) error {
	var builder strings.Builder
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			builder.WriteString(entry)
			builder.WriteByte('\n')
		}
	}

	if err := os.WriteFile(path, []byte(builder.String()), 0644); err != nil {
		return fmt.Errorf("error writing list %s: %w", path, err)
	}

	return nil
}
