package domain

import (
	"strings"
)

// ID is used across domain entities.
type ID int64

// Station is one of the two fixed ends of the line.
type Station string

const (
	StationBase   Station = "base"
	StationSummit Station = "summit"
)

// Opposite returns the other end of the line.
func (s Station) Opposite() Station {
	if s == StationBase {
		return StationSummit
	}
	return StationBase
}

func (s Station) Valid() bool {
	return s == StationBase || s == StationSummit
}

func (s Station) String() string { return string(s) }

// ParseStation accepts "base"/"summit" case-insensitively.
func ParseStation(raw string) (Station, error) {
	st := Station(strings.ToLower(strings.TrimSpace(raw)))
	if !st.Valid() {
		return "", ValidationError{Field: "station", Msg: "must be base or summit"}
	}
	return st, nil
}
