package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxRawKeyLength is the longest key stored verbatim. Longer keys are
// collapsed to a digest of the full key to bound key storage cost.
const MaxRawKeyLength = 250

// keySep joins the components of a derived key.
const keySep = ":"

// BuildKey derives a deterministic cache key from an operation name and
// its arguments.
//
// Format: prefix:op:arg1:...:k1=v1:k2=v2. Named arguments are sorted by
// name, so two calls with the same pairs in different order yield the
// same key. Keys longer than MaxRawKeyLength become
// prefix:op:<xxhash64 hex of the full key>.
//
// BuildKey is pure and never fails: every argument is rendered with its
// default string conversion.
func BuildKey(prefix, op string, args []any, kwargs map[string]any) string {
	parts := make([]string, 0, len(args)+len(kwargs)+2)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, op)

	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%v", arg))
	}

	if len(kwargs) > 0 {
		names := make([]string, 0, len(kwargs))
		for name := range kwargs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, name+"="+fmt.Sprintf("%v", kwargs[name]))
		}
	}

	key := strings.Join(parts, keySep)
	if len(key) <= MaxRawKeyLength {
		return key
	}

	head := op
	if prefix != "" {
		head = prefix + keySep + op
	}
	return head + keySep + strconv.FormatUint(xxhash.Sum64String(key), 16)
}
