package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a ULID string, used for account and session identifiers.
// ULIDs sort lexicographically by creation time and are safe as DynamoDB
// partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
