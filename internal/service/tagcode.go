package service

import (
	"fmt"
	"math/rand"
)

// DefaultTagPrefix is the literal prepended to every generated tag code.
const DefaultTagPrefix = "LIB"

// TagGenerator produces candidate short codes of the shape PREFIX-NNNN.
// Codes are drawn uniformly from a 10,000 value space and are not unique by
// themselves; uniqueness among active checkins is the caller's job.
type TagGenerator struct {
	prefix string
	intn   func(n int) int
}

// NewTagGenerator constructs a TagGenerator with the given prefix.
func NewTagGenerator(prefix string) *TagGenerator {
	if prefix == "" {
		prefix = DefaultTagPrefix
	}
	return &TagGenerator{prefix: prefix, intn: rand.Intn}
}

// Generate returns a candidate tag code, e.g. "LIB-0042".
func (g *TagGenerator) Generate() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.intn(10000))
}
