package models

import "strings"

// Grade is the learner's self-assessed outcome of a single review
type Grade int

const (
	GradeAgain Grade = iota + 1
	GradeHard
	GradeGood
	GradeEasy
)

var gradeNames = map[Grade]string{
	GradeAgain: "again",
	GradeHard:  "hard",
	GradeGood:  "good",
	GradeEasy:  "easy",
}

func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether g is one of the four defined grades
func (g Grade) Valid() bool {
	_, ok := gradeNames[g]
	return ok
}

// IsSuccess reports whether the grade counts as a successful recall
func (g Grade) IsSuccess() bool {
	return g == GradeGood || g == GradeEasy
}

// ParseGrade converts a grade name ("again", "hard", "good", "easy")
func ParseGrade(s string) (Grade, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for g, n := range gradeNames {
		if n == name {
			return g, nil
		}
	}
	return 0, InvalidInput("unknown grade %q", s)
}
