package state

const (
	// LinkDeleted is the reserved cost value signalling removal of a link.
	LinkDeleted Cost = -1

	// NoRoute is returned by next-hop queries for destinations without a
	// usable route.
	NoRoute NodeId = -1
)

var (
	// DefaultDuration bounds a scenario run when the file does not give one.
	DefaultDuration = 60.0
)
