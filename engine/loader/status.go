package loader

// LoadStatus is the state of one identifier's load state machine.
//
//	Unloaded -> Requested -> BytesPending -> Decoding -> Committed -> Freed
//
// A failed load drops back to Unloaded; Freed is terminal and the handle may
// be recycled afterwards.
type LoadStatus uint8

const (
	StatusUnloaded LoadStatus = iota
	StatusRequested
	StatusBytesPending
	StatusDecoding
	StatusCommitted
	StatusFreed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusRequested:
		return "requested"
	case StatusBytesPending:
		return "bytes-pending"
	case StatusDecoding:
		return "decoding"
	case StatusCommitted:
		return "committed"
	case StatusFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// Loaded reports whether a committed version is visible to readers.
func (s LoadStatus) Loaded() bool {
	return s == StatusCommitted
}
