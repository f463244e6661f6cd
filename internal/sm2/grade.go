package sm2

import "fmt"

// Grade is the recall quality reported for a review, 0 through 5.
type Grade int

const (
	Blackout          Grade = 0 // Complete failure to recall.
	Incorrect         Grade = 1 // Wrong, but remembered on seeing the answer.
	IncorrectFamiliar Grade = 2 // Wrong, but the answer felt familiar.
	CorrectDifficult  Grade = 3 // Correct with significant effort.
	CorrectHesitation Grade = 4 // Correct after some hesitation.
	Perfect           Grade = 5 // Correct with no hesitation.
)

var gradeNames = [...]string{
	Blackout:          "Blackout",
	Incorrect:         "Incorrect",
	IncorrectFamiliar: "IncorrectFamiliar",
	CorrectDifficult:  "CorrectDifficult",
	CorrectHesitation: "CorrectHesitation",
	Perfect:           "Perfect",
}

// Grades lists every valid grade in ascending order.
var Grades = []Grade{Blackout, Incorrect, IncorrectFamiliar, CorrectDifficult, CorrectHesitation, Perfect}

// String returns the grade name, or "Grade(n)" for values outside 0..5.
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// IsValid reports whether g is within 0..5.
func (g Grade) IsValid() bool {
	return g >= Blackout && g <= Perfect
}

// Passed reports whether g counts as a successful recall.
func (g Grade) Passed() bool {
	return g >= PassGrade
}
