package service

import (
	"fmt"
	"unicode/utf8"

	"github.com/and161185/chunkhub/internal/errs"
)

// Column widths of the catalog tables, in characters.
const (
	maxNameLen          = 255
	maxPlatformLen      = 20
	maxLoaderVersionLen = 50
	maxVersionLabelLen  = 50
	maxDownloadURLLen   = 512
)

type field struct {
	name string
	val  string
	max  int
}

// checkLengths rejects the first value wider than its column.
func checkLengths(fields ...field) error {
	for _, f := range fields {
		if utf8.RuneCountInString(f.val) > f.max {
			return errs.New(errs.ErrInvalidInput, fmt.Sprintf("%s must be at most %d characters", f.name, f.max))
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
