package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseProgressArg extracts a percentage from a command argument. A
// trailing percent sign is accepted. Range checks are left to the engine.
func ParseProgressArg(args string) (int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, fmt.Errorf("progress is required")
	}
	s := strings.TrimSuffix(fields[0], "%")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid progress %q", fields[0])
	}
	return n, nil
}

// ParseRefArg extracts a question reference: a 1-based number or an ID.
func ParseRefArg(args string) (string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", fmt.Errorf("question number is required")
	}
	return strings.TrimPrefix(fields[0], "#"), nil
}

// ParseTitleArg extracts a book title, dropping surrounding quotes.
func ParseTitleArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if len(s) >= 2 {
		for _, q := range []string{`"`, "'", "«»", "“”"} {
			open, closing := q, q
			if r := []rune(q); len(r) == 2 {
				open, closing = string(r[0]), string(r[1])
			}
			if strings.HasPrefix(s, open) && strings.HasSuffix(s, closing) && len(s) >= len(open)+len(closing) {
				s = strings.TrimSpace(s[len(open) : len(s)-len(closing)])
				break
			}
		}
	}
	if s == "" {
		return "", fmt.Errorf("title is required")
	}
	return s, nil
}
