package domain

import (
	"fmt"
	"strings"
)

// SchoolLevel is the target student level of a lesson
type SchoolLevel string

const (
	LevelElementary SchoolLevel = "초등"
	LevelMiddle     SchoolLevel = "중등"
	LevelHigh       SchoolLevel = "고등"
)

// SchoolLevels lists the levels in display order
var SchoolLevels = []SchoolLevel{LevelElementary, LevelMiddle, LevelHigh}

var levelAliases = map[string]SchoolLevel{
	"elementary": LevelElementary,
	"middle":     LevelMiddle,
	"high":       LevelHigh,
}

// ParseSchoolLevel accepts the Korean label or its English alias
func ParseSchoolLevel(s string) (SchoolLevel, error) {
	s = strings.TrimSpace(s)
	for _, l := range SchoolLevels {
		if string(l) == s {
			return l, nil
		}
	}
	if l, ok := levelAliases[strings.ToLower(s)]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Valid reports whether l is a known level
func (l SchoolLevel) Valid() bool {
	for _, known := range SchoolLevels {
		if l == known {
			return true
		}
	}
	return false
}

func (l SchoolLevel) String() string {
	return string(l)
}

// RoomType is the escape-room subtype. Each variant implies a distinct
// narrative and structural bias for the plan.
type RoomType string

const (
	RoomStorytelling RoomType = "스토리텔링형"
	RoomProblem      RoomType = "문제방"
	RoomExploration  RoomType = "탐사/모험형"
	RoomMystery      RoomType = "미스터리/추리형"
	RoomHistorical   RoomType = "역사/시대극형"
)

// RoomTypes lists the subtypes in display order
var RoomTypes = []RoomType{RoomStorytelling, RoomProblem, RoomExploration, RoomMystery, RoomHistorical}

var roomAliases = map[string]RoomType{
	"storytelling": RoomStorytelling,
	"problem":      RoomProblem,
	"exploration":  RoomExploration,
	"mystery":      RoomMystery,
	"historical":   RoomHistorical,
}

// ParseRoomType accepts the Korean label or its English alias
func ParseRoomType(s string) (RoomType, error) {
	s = strings.TrimSpace(s)
	for _, t := range RoomTypes {
		if string(t) == s {
			return t, nil
		}
	}
	if t, ok := roomAliases[strings.ToLower(s)]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRoomType, s)
}

// Valid reports whether t is a known subtype
func (t RoomType) Valid() bool {
	for _, known := range RoomTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t RoomType) String() string {
	return string(t)
}
