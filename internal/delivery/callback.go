package delivery

import (
	"fmt"
	"strconv"
	"strings"

	errors "github.com/kpp-all/drip-bot/internal/errors"
)

// ContinuePrefix marks callback payloads produced by the continue button.
const ContinuePrefix = "next"

const (
	callbackSeparator      = ":"
	callbackDataLimitBytes = 64
)

// ContinueCallback encodes the confirming action for a (day, step) request
// as "next:<day>:<step>". Telegram caps callback data at 64 bytes; two small
// integers always fit.
func ContinueCallback(day, step int) string {
	return strings.Join([]string{ContinuePrefix, strconv.Itoa(day), strconv.Itoa(step)}, callbackSeparator)
}

// ParseContinueCallback decodes a continue payload back into its requested
// coordinates. Malformed payloads surface as validation errors.
func ParseContinueCallback(data string) (day, step int, err error) {
	data = strings.TrimSpace(data)
	if data == "" || len(data) > callbackDataLimitBytes {
		return 0, 0, errors.NewValidationError(fmt.Sprintf("malformed continue callback %q", data))
	}

	parts := strings.Split(data, callbackSeparator)
	if len(parts) != 3 || parts[0] != ContinuePrefix {
		return 0, 0, errors.NewValidationError(fmt.Sprintf("malformed continue callback %q", data))
	}

	day, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.NewValidationError(fmt.Sprintf("malformed continue day %q", parts[1]))
	}

	step, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, errors.NewValidationError(fmt.Sprintf("malformed continue step %q", parts[2]))
	}

	return day, step, nil
}
