package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// KeyGetter is implemented by containers a path segment can index.
type KeyGetter interface {
	Get(key string) any
}

var invalidPath = regexp.MustCompile(`[^\w.$]`)

// ParsePath compiles a dot-delimited path such as "user.address.city" into a getter.
// Each segment is read through Get when the current value is a KeyGetter,
// so the reads are tracked. A missing segment yields nil.
func ParsePath(path string) (func(root any) any, error) {
	if path == "" || invalidPath.MatchString(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}

	return func(root any) any {
		value := root
		for _, seg := range segments {
			switch v := value.(type) {
			case nil:
				return nil
			case KeyGetter:
				value = v.Get(seg)
			case map[string]any:
				value = v[seg]
			default:
				return nil
			}
		}

		return value
	}, nil
}
