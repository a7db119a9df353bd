package authorizer

import "strings"

// Headers is a case-insensitive view over a header map.
type Headers map[string]string

// NormalizeHeaders folds every header name to lower case. When several
// casings of one name are present the value stored under the lower-case key
// wins; among other casings the lexically smallest key wins so the result
// does not depend on map iteration order.
func NormalizeHeaders(raw map[string]string) Headers {
	out := make(Headers, len(raw))
	chosen := make(map[string]string, len(raw))

	for name, value := range raw {
		folded := strings.ToLower(name)
		prev, seen := chosen[folded]
		switch {
		case !seen:
		case prev == folded:
			continue
		case name != folded && name > prev:
			continue
		}
		chosen[folded] = name
		out[folded] = value
	}
	return out
}

// Get returns the value for name, matching case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

// Credential returns the Authorization value in raw, or "" when absent.
func Credential(raw map[string]string) string {
	v, _ := NormalizeHeaders(raw).Get(HeaderName)
	return v
}
