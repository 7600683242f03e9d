package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSize reads a "WIDTHxHEIGHT" size such as "100x150" (the separator is
// case-insensitive).
func ParseSize(text string) (float64, float64, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(text)), "x")
	if len(parts) != 2 {
		return 0, 0, invalidSize(text)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || w <= 0 {
		return 0, 0, invalidSize(text)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || h <= 0 {
		return 0, 0, invalidSize(text)
	}
	return w, h, nil
}

func FormatSize(width, height float64) string {
	return fmt.Sprintf("%s x %s mm", formatMM(width), formatMM(height))
}

func formatMM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func invalidSize(text string) error {
	return newError(CodeInvalidSize, fmt.Sprintf("invalid size %q", text), map[string]any{"size": text})
}
