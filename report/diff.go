package report

import (
	"encoding/json"
	"fmt"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Diff returns an ASCII diff between the JSON forms of two schedules. The
// result is empty when they are identical.
func Diff(a, b *Schedule) (string, error) {
	left, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode schedule: %w", err)
	}
	right, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode schedule: %w", err)
	}

	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return "", fmt.Errorf("failed to diff schedules: %w", err)
	}
	if !delta.Modified() {
		return "", nil
	}

	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return "", fmt.Errorf("failed to decode schedule: %w", err)
	}

	asciiFmt := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       false,
	})
	out, err := asciiFmt.Format(delta)
	if err != nil {
		return "", fmt.Errorf("failed to format diff: %w", err)
	}
	return out, nil
}
