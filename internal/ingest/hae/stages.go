package hae

import "strings"

// Canonical sleep stage names (as used by Apple Health in English).
const (
	StageCore   = "Core"
	StageDeep   = "Deep"
	StageREM    = "REM"
	StageAwake  = "Awake"
	StageInBed  = "In Bed"
	StageAsleep = "Asleep"
)

// stageNames maps lowercased localized stage names to canonical ones.
var stageNames = map[string]string{
	"core":   StageCore,
	"deep":   StageDeep,
	"rem":    StageREM,
	"awake":  StageAwake,
	"in bed": StageInBed,
	"asleep": StageAsleep,

	// German
	"kern":    StageCore,
	"tief":    StageDeep,
	"wach":    StageAwake,
	"im bett": StageInBed,

	// French
	"paradoxal": StageREM,
	"profond":   StageDeep,
	"léger":     StageCore,
	"éveillé":   StageAwake,
	"au lit":    StageInBed,
	"endormi":   StageAsleep,

	// Spanish and Portuguese
	"profundo":   StageDeep,
	"principal":  StageCore,
	"despierto":  StageAwake,
	"en la cama": StageInBed,
	"dormido":    StageAsleep,
	"acordado":   StageAwake,
	"na cama":    StageInBed,
}

// NormalizeStage maps a possibly-localized stage name to its canonical name.
// Unknown names come back unchanged with ok false.
func NormalizeStage(raw string) (string, bool) {
	if canonical, ok := stageNames[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical, true
	}
	return raw, false
}

// isAsleep reports whether time in the stage counts toward sleep duration.
func isAsleep(stage string) bool {
	switch stage {
	case StageCore, StageDeep, StageREM, StageAsleep:
		return true
	}
	return false
}
