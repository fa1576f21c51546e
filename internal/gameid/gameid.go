// Package gameid generates the opaque ids used for rooms when the client
// does not supply one. Ids are UUIDv7 (time-ordered) encoded as 26
// characters of Crockford base32, so they sort by creation time and are
// safe in URLs and log lines.
package gameid

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lowercase
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// New creates a fresh game id
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the random source does
		panic("gameid: " + err.Error())
	}
	return encode(id)
}

// encode packs the 128-bit uuid into 26 base32 characters. 26*5 = 130 bits;
// the two spare high bits are zero, so the first character is always 0-7.
func encode(u uuid.UUID) string {
	hi := binary.BigEndian.Uint64(u[0:8])
	lo := binary.BigEndian.Uint64(u[8:16])

	var b [26]byte
	for i := 25; i >= 0; i-- {
		b[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(b[:])
}

// Validate checks that an id has the shape New produces
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game id must be exactly 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(alphabet, rune(id[i])) {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
