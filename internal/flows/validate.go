package flows

import (
	"strconv"
	"time"

	"github.com/abenov/qoymabot/internal/inventory"
)

// parseID accepts non-negative integer ids.
func parseID(text string) (int64, bool) {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// parseCount accepts zero; used for initial quantity and the threshold.
func parseCount(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parsePositive rejects zero; movements must move something.
func parsePositive(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseExpiry accepts "-" as no expiry or a date in YYYY-MM-DD form.
func parseExpiry(text string) (*string, bool) {
	if text == "-" {
		return nil, true
	}
	if _, err := time.Parse(inventory.DateLayout, text); err != nil {
		return nil, false
	}
	return &text, true
}
