// Package ids generates and checks the identifiers used for every stored
// record. KSUIDs sort by creation time, so they double as stable cursors.
package ids

import "github.com/segmentio/ksuid"

func New() string {
	return ksuid.New().String()
}

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	_, err := ksuid.Parse(s)
	return err == nil
}
