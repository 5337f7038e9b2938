package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spotybot/internal/shared"
)

// parseLimit reads an optional integer argument, falling back to def and clamping to [1, hi].
func parseLimit(args []string, def, hi int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := atoiSaturated(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not an integer", shared.ErrFormat, args[0])
	}
	return shared.Clamp(n, 1, hi), nil
}

// atoiSaturated is strconv.Atoi except that out-of-range integers
// yield the nearest representable value so callers can clamp them.
func atoiSaturated(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

// parseVolume reads the required volume argument clamped to [0, 100].
func parseVolume(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: volume", shared.ErrMissingArgument)
	}
	n, err := atoiSaturated(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: volume %q is not an integer", shared.ErrFormat, args[0])
	}
	return shared.Clamp(n, 0, 100), nil
}

// parseSeek converts a "minutes:seconds" position into milliseconds. Seconds past 59 carry over.
func parseSeek(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: position", shared.ErrMissingArgument)
	}

	minutes, seconds, ok := strings.Cut(args[0], ":")
	if !ok {
		return 0, fmt.Errorf("%w: position %q is not min:sec", shared.ErrFormat, args[0])
	}

	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("%w: minutes %q", shared.ErrFormat, minutes)
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s < 0 {
		return 0, fmt.Errorf("%w: seconds %q", shared.ErrFormat, seconds)
	}

	return (m*60 + s) * 1000, nil
}
