package core

import (
	"fmt"
	"strings"
)

// ViewingMode selects the shading branch of the primary pass.
type ViewingMode uint32

const (
	ViewRender ViewingMode = iota
	ViewColor
	ViewNormal
	ViewDistance

	viewModeCount
)

var viewModeNames = [...]string{"render", "color", "normal", "distance"}

func (m ViewingMode) String() string {
	if m < viewModeCount {
		return viewModeNames[m]
	}
	return fmt.Sprintf("ViewingMode(%d)", uint32(m))
}

func (m ViewingMode) Valid() bool { return m < viewModeCount }

// Next cycles through the modes.
func (m ViewingMode) Next() ViewingMode {
	return (m + 1) % viewModeCount
}

func ParseViewingMode(s string) (ViewingMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range viewModeNames {
		if n == s {
			return ViewingMode(i), nil
		}
	}
	return ViewRender, fmt.Errorf("unknown viewing mode %q", s)
}

func (m ViewingMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid viewing mode %d", uint32(m))
	}
	return []byte(m.String()), nil
}

func (m *ViewingMode) UnmarshalText(b []byte) error {
	v, err := ParseViewingMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
