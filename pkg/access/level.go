package access

import "fmt"

// Level is a totally ordered access tier. Higher values grant strictly more
// access; comparing two levels with < and > is well-defined.
type Level int

const (
	// ReadOnly permits reads only. This is the floor of the order and the
	// conventional default for unmatched identities.
	ReadOnly Level = iota
	// WriteOnly permits writes only.
	WriteOnly
	// ReadWrite permits reads and writes.
	ReadWrite
	// Admin permits everything, including writes to the shared read-only
	// store. This is the top of the order.
	Admin
)

var levelNames = map[Level]string{
	ReadOnly:  "read_only",
	WriteOnly: "write_only",
	ReadWrite: "read_write",
	Admin:     "admin",
}

// String returns the canonical wire name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// AtLeast reports whether l grants at least as much access as m.
func (l Level) AtLeast(m Level) bool {
	return l >= m
}

// Min returns the lower of two levels. Register clamps a requested level
// with Min against the resolver ceiling.
func Min(a, b Level) Level {
	if a < b {
		return a
	}
	return b
}

// ParseLevel parses a canonical level name.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, ErrBadConfig(fmt.Sprintf("unknown access level %q", s))
}

// MarshalText implements encoding.TextMarshaler for YAML, JSON and CBOR.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrBadConfig(fmt.Sprintf("invalid access level %d", int(l)))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
