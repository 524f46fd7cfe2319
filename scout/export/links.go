package export

import (
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

// OpenLink opens a URL in the default browser, falling back to copying it to
// the clipboard when no browser is available (headless sessions).
func OpenLink(url string) error {
	if err := browser.OpenURL(url); err == nil {
		return nil
	} else {
		slog.Warn("unable to open browser, copying link to clipboard", "url", url, "error", err)
	}

	if err := clipboard.WriteAll(url); err != nil {
		return fmt.Errorf("unable to open link or copy it to clipboard: %w", err)
	}

	return nil
}
