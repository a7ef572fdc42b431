package ecs

import (
	"strconv"
	"sync/atomic"
)

// ObjectID is the 64-bit network identity of a game object. The low bits
// hold a counter, the high bits carry flags describing where the id came from.
type ObjectID int64

// ObjectIDFlags mark the origin of an ObjectID.
type ObjectIDFlags int64

const (
	FlagClient     ObjectIDFlags = 1 << 46
	FlagSpawned    ObjectIDFlags = 1 << 58
	FlagCharacter  ObjectIDFlags = 1 << 59
	FlagPersistent ObjectIDFlags = 1 << 60

	flagMask = FlagClient | FlagSpawned | FlagCharacter | FlagPersistent
)

// Zero is never assigned to an object.
const Zero ObjectID = 0

func (id ObjectID) IsZero() bool { return id == 0 }

func (id ObjectID) Has(f ObjectIDFlags) bool { return ObjectIDFlags(id)&f == f }

// Counter strips the flag bits.
func (id ObjectID) Counter() int64 { return int64(id) &^ int64(flagMask) }

func (id ObjectID) String() string { return strconv.FormatInt(int64(id), 10) }

// IDGenerator hands out ObjectIDs from a monotonically increasing counter.
// Ids are never reused for the lifetime of the generator.
type IDGenerator struct {
	next atomic.Int64
}

// NewIDGenerator starts counting after seed.
func NewIDGenerator(seed int64) *IDGenerator {
	g := &IDGenerator{}
	g.next.Store(seed &^ int64(flagMask))
	return g
}

// Next returns a fresh id carrying flags.
func (g *IDGenerator) Next(flags ObjectIDFlags) ObjectID {
	return ObjectID(g.next.Add(1) | int64(flags))
}
