package service

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const (
	ShipmentTrackingPrefix = "TRK"
	PriceGuidePrefix       = "JLP"
)

// TrackingGenerator produces identifiers of the form
// PREFIX + unix milliseconds + random integer in [0, 999].
type TrackingGenerator struct {
	prefix string
	now    func() time.Time
	intn   func(n int) int
}

// NewTrackingGenerator returns a generator for the given prefix.
func NewTrackingGenerator(prefix string) *TrackingGenerator {
	return &TrackingGenerator{prefix: prefix, now: time.Now, intn: rand.IntN}
}

// Next returns a fresh identifier. Uniqueness is enforced by the store.
func (g *TrackingGenerator) Next() string {
	ms := g.now().UnixMilli()
	return g.prefix + strconv.FormatInt(ms, 10) + strconv.Itoa(g.intn(1000))
}
