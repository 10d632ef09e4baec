package answering

import (
	"fmt"
	"strconv"
	"strings"
)

// pageBreak separates pages in extracted document text.
const pageBreak = "\f"

// ParsePageRange resolves "N" or "N-M" into a 1-based inclusive page span.
// An empty range selects every page; the end is clamped to pageCount.
func ParsePageRange(raw string, pageCount int) (int, int, error) {
	if pageCount <= 0 {
		return 0, 0, fmt.Errorf("document has no pages")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, pageCount, nil
	}
	startRaw, endRaw, isRange := strings.Cut(raw, "-")
	start, err := strconv.Atoi(strings.TrimSpace(startRaw))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page range %q", raw)
	}
	end := start
	if isRange {
		end, err = strconv.Atoi(strings.TrimSpace(endRaw))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page range %q", raw)
		}
	}
	if start < 1 || end < start {
		return 0, 0, fmt.Errorf("invalid page range %q", raw)
	}
	if start > pageCount {
		return 0, 0, fmt.Errorf("page range %q exceeds %d pages", raw, pageCount)
	}
	if end > pageCount {
		end = pageCount
	}
	return start, end, nil
}

func splitPages(text string) []string {
	return strings.Split(text, pageBreak)
}
