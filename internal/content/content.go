package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Sanitize убирает разметку из пользовательского текста перед сохранением
func Sanitize(input string) string {
	return strings.TrimSpace(policy.Sanitize(input))
}
