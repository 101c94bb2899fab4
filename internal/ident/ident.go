// Package ident generates record identifiers for row-store entries.
package ident

import (
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// New returns a table-unique identifier: a sanitized prefix joined with a
// random UUID, falling back to a timestamp+random suffix if the entropy
// source fails. Identifiers are never reused or recycled after deletion.
func New(prefix string) string {
	safe := unsafeChars.ReplaceAllString(prefix, "")
	if safe == "" {
		safe = "id"
	}

	if id, err := uuid.NewV4(); err == nil {
		return safe + "_" + id.String()
	}

	stamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := strconv.FormatInt(rand.Int63(), 36)
	return safe + "_" + stamp + "_" + suffix
}
