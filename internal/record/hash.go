package record

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace for record identity. Fixed forever: record ids must stay
// stable across runs, processes and reimplementations so that the same
// logical entry regenerated independently always hashes to the same id.
var namespace = uuid.MustParse("12345678-1234-5678-1234-567812345678")

// IdentityKey joins the identity components with a pipe separator. The
// separator keeps "ana|2" + "025" and "ana" + "2|025" from colliding.
func IdentityKey(owner, dateISO string) string {
	return strings.TrimSpace(owner) + "|" + dateISO
}

// NewID computes the content-addressed record id: a name-based UUID (v5,
// SHA-1) of the identity key under the fixed namespace. Deterministic and
// stable across processes.
func NewID(owner, dateISO string) string {
	return uuid.NewSHA1(namespace, []byte(IdentityKey(owner, dateISO))).String()
}
