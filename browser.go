package pylaunch

import (
	"fmt"

	"github.com/pkg/browser"
)

// OpenBrowser opens url in the user's default browser.
func OpenBrowser(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}
