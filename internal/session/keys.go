package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/escapekit/internal/domain"
)

// AssetKind identifies one kind of generated asset
type AssetKind string

const (
	KindImage         AssetKind = "image"
	KindWorksheet     AssetKind = "worksheet"
	KindWebApp        AssetKind = "webapp"
	KindZepAdvice     AssetKind = "zep_advice"
	KindZepBackground AssetKind = "zep_background"
	KindFinalWebApp   AssetKind = "final_webapp"
)

// PuzzleKinds are generated once per puzzle
var PuzzleKinds = []AssetKind{KindImage, KindWorksheet, KindWebApp}

// PlanKinds are generated once per plan
var PlanKinds = []AssetKind{KindZepAdvice, KindZepBackground, KindFinalWebApp}

// ParseAssetKind validates a kind name
func ParseAssetKind(s string) (AssetKind, error) {
	k := AssetKind(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range PuzzleKinds {
		if k == known {
			return k, nil
		}
	}
	for _, known := range PlanKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown asset kind %q", domain.ErrInput, s)
}

// PlanLevel reports whether the kind belongs to the plan rather than a puzzle
func (k AssetKind) PlanLevel() bool {
	for _, known := range PlanKinds {
		if k == known {
			return true
		}
	}
	return false
}

// PlanSlot is the puzzle index used by plan-level keys
const PlanSlot = -1

// SlotKey addresses one asset: a puzzle index and kind, or PlanSlot and a
// plan-level kind
type SlotKey struct {
	Puzzle int       `json:"puzzle"`
	Kind   AssetKind `json:"kind"`
}

// PuzzleKey returns the key of a puzzle asset
func PuzzleKey(index int, kind AssetKind) SlotKey {
	return SlotKey{Puzzle: index, Kind: kind}
}

// PlanKey returns the key of a plan-level asset
func PlanKey(kind AssetKind) SlotKey {
	return SlotKey{Puzzle: PlanSlot, Kind: kind}
}

func (k SlotKey) String() string {
	if k.Puzzle == PlanSlot {
		return "plan/" + string(k.Kind)
	}
	return "puzzle:" + strconv.Itoa(k.Puzzle) + "/" + string(k.Kind)
}

// Owner returns the error slot shared by this key. Each puzzle owns one
// error slot; the two ZEP assets share one; the final app has its own.
func (k SlotKey) Owner() string {
	switch k.Kind {
	case KindZepAdvice, KindZepBackground:
		return "zep"
	case KindFinalWebApp:
		return "final"
	default:
		return "puzzle:" + strconv.Itoa(k.Puzzle)
	}
}

// Valid reports whether the key is well formed
func (k SlotKey) Valid() bool {
	if k.Kind.PlanLevel() {
		return k.Puzzle == PlanSlot
	}
	for _, known := range PuzzleKinds {
		if k.Kind == known {
			return k.Puzzle >= 0
		}
	}
	return false
}
