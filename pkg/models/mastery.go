package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// MasteryStage is one of ten ordered tiers tracking how deeply an item is learned.
// The zero value is StageUnseen.
type MasteryStage int

const (
	StageUnseen MasteryStage = iota
	StageIntroduced
	StageApprentice1
	StageApprentice2
	StageApprentice3
	StageApprentice4
	StageJourneyman
	StageExpert
	StageMaster
	StageBurned
)

var stageNames = [...]string{
	StageUnseen:      "unseen",
	StageIntroduced:  "introduced",
	StageApprentice1: "apprentice_1",
	StageApprentice2: "apprentice_2",
	StageApprentice3: "apprentice_3",
	StageApprentice4: "apprentice_4",
	StageJourneyman:  "journeyman",
	StageExpert:      "expert",
	StageMaster:      "master",
	StageBurned:      "burned",
}

// AllStages lists every stage from weakest to strongest
func AllStages() []MasteryStage {
	stages := make([]MasteryStage, len(stageNames))
	for i := range stageNames {
		stages[i] = MasteryStage(i)
	}
	return stages
}

func (s MasteryStage) String() string {
	if s.Valid() {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is a defined stage
func (s MasteryStage) Valid() bool {
	return s >= StageUnseen && s <= StageBurned
}

// ParseMasteryStage converts a snake_case stage name such as "apprentice_3"
func ParseMasteryStage(s string) (MasteryStage, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range stageNames {
		if n == name {
			return MasteryStage(i), nil
		}
	}
	return StageUnseen, InvalidInput("unknown mastery stage %q", s)
}

// Value stores the stage by name
func (s MasteryStage) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, InvalidInput("unknown mastery stage %d", int(s))
	}
	return s.String(), nil
}

// Scan reads a stage stored by name
func (s *MasteryStage) Scan(src any) error {
	var name string
	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into MasteryStage", src)
	}
	stage, err := ParseMasteryStage(name)
	if err != nil {
		return err
	}
	*s = stage
	return nil
}

func (s MasteryStage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, InvalidInput("unknown mastery stage %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *MasteryStage) UnmarshalText(text []byte) error {
	stage, err := ParseMasteryStage(string(text))
	if err != nil {
		return err
	}
	*s = stage
	return nil
}
