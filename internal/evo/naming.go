package evo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Namer supplies the disambiguation token appended to generated entity names.
type Namer interface {
	Next() string
}

// UUIDNamer issues random UUIDs.
type UUIDNamer struct{}

func (UUIDNamer) Next() string {
	return uuid.NewString()
}

// CounterNamer issues a monotonically increasing counter, which keeps
// generated names reproducible under a fixed seed.
type CounterNamer struct {
	next uint64
}

func (c *CounterNamer) Next() string {
	c.next++
	return strconv.FormatUint(c.next, 10)
}

// MakeUniqueHash returns left + right + a fresh token from the namer.
func (r *Replicator) MakeUniqueHash(left, right string) string {
	return left + right + r.Namer.Next()
}

// BaseName strips lineage suffixes: "B@add_node#g1-4" -> "B".
func BaseName(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[:i]
	}
	return name
}

// lineageName derives a child entity name from its parent's base name, the
// operator that created it and the generation tag.
func (r *Replicator) lineageName(parent string, kind ModificationKind, uniqueString string) string {
	return fmt.Sprintf("%s@%s#%s", BaseName(parent), kind, r.MakeUniqueHash(uniqueString, "-"))
}

func (r *Replicator) linkName(source, sink string, kind ModificationKind, uniqueString string) string {
	return r.lineageName(BaseName(source)+"_to_"+BaseName(sink), kind, uniqueString)
}
