package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort lexicographically by creation
// time, which keeps them usable both as DynamoDB partition keys and as
// chronological sort keys for login events.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
