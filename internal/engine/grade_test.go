package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	e := New()

	tests := []struct {
		name       string
		guessCount int
		finalError float64
		forfeited  bool
		want       Grade
	}{
		{"forfeit beats everything", 1, 0, true, GradeF},
		{"forfeit with many guesses", 5, 60, true, GradeF},
		{"exact first guess", 1, 0, false, GradeS},
		{"bullseye first guess", 1, 4, false, GradeS},
		{"bullseye boundary first guess", 1, 5, false, GradeS},
		{"bullseye second guess", 2, 4, false, GradeA},
		{"bullseye third guess", 3, 5, false, GradeA},
		{"bullseye fourth guess", 4, 3, false, GradeB},
		{"bullseye fifth guess", 5, 5, false, GradeB},
		{"seven percent", 3, 7, false, GradeC},
		{"ten percent boundary", 5, 10, false, GradeC},
		{"twelve percent", 2, 12, false, GradeD},
		{"fifteen percent boundary", 5, 15, false, GradeD},
		{"just past fifteen", 5, 15.01, false, GradeF},
		{"hopeless", 5, 100, false, GradeF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Grade(tt.guessCount, tt.finalError, tt.forfeited))
		})
	}
}

func TestGradeThresholdsAreTunable(t *testing.T) {
	// С ослабленными порогами те же входы дают другую оценку
	e := New()
	e.BullseyePercent = 20
	e.AGuessLimit = 2

	assert.Equal(t, GradeS, e.Grade(1, 18, false))
	assert.Equal(t, GradeA, e.Grade(2, 18, false))
	assert.Equal(t, GradeB, e.Grade(3, 18, false))
}

func TestStars(t *testing.T) {
	tests := []struct {
		grade Grade
		want  int
	}{
		{GradeS, 5},
		{GradeA, 4},
		{GradeB, 3},
		{GradeC, 2},
		{GradeD, 1},
		{GradeF, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.grade.Stars(), "grade %s", tt.grade)
	}

	e := New()
	assert.Equal(t, 5, e.StarsFor(GradeS))
	assert.Equal(t, 0, e.StarsFor(Grade("garbage")))
}

func TestParseGrade(t *testing.T) {
	assert.Equal(t, GradeS, ParseGrade("S"))
	assert.Equal(t, GradeD, ParseGrade("D"))
	assert.Equal(t, GradeF, ParseGrade("F"))
	assert.Equal(t, GradeF, ParseGrade(""))
	assert.Equal(t, GradeF, ParseGrade("X"))
}
