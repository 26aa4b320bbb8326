package querycache

import (
	"fmt"
	"strings"
)

// Key identifies one logical query. Build keys with MakeKey so that equal
// tuples always produce equal keys regardless of element types.
type Key string

// keySep is a unit separator, which cannot appear in the textual parts we
// key on (paths, page numbers, window sizes).
const keySep = "\x1f"

// MakeKey canonicalizes an ordered tuple into a Key. Two calls with
// structurally equal parts yield the same key.
func MakeKey(parts ...any) Key {
	encoded := make([]string, len(parts))
	for i, p := range parts {
		encoded[i] = fmt.Sprintf("%v", p)
	}
	return Key(strings.Join(encoded, keySep))
}

func (k Key) String() string {
	return strings.ReplaceAll(string(k), keySep, "/")
}
