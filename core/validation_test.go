package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLesson() *Lesson {
	return &Lesson{
		Id:        "L01",
		Title:     "Opening Principles",
		Concept:   "center control",
		Validator: "Morphy",
		Phase:     "opening",
		ModuleId:  1,
	}
}

func TestValidateLesson_Valid(t *testing.T) {
	assert.NoError(t, ValidateLesson(validLesson()))
}

func TestValidateLesson_Nil(t *testing.T) {
	err := ValidateLesson(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLesson)
}

func TestValidateLesson_EmptyId(t *testing.T) {
	lesson := validLesson()
	lesson.Id = ""

	err := ValidateLesson(lesson)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyLessonId)
}

func TestValidateLesson_EmptyTitle(t *testing.T) {
	lesson := validLesson()
	lesson.Title = ""

	err := ValidateLesson(lesson)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestValidateLesson_EmptyConcept(t *testing.T) {
	lesson := validLesson()
	lesson.Concept = ""

	err := ValidateLesson(lesson)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyConcept)
}

func TestValidateLesson_NegativeModuleId(t *testing.T) {
	lesson := validLesson()
	lesson.ModuleId = -1

	err := ValidateLesson(lesson)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidModuleId)
}

func TestValidateLesson_OptionalFieldsMayBeEmpty(t *testing.T) {
	lesson := validLesson()
	lesson.Validator = ""
	lesson.Phase = ""

	assert.NoError(t, ValidateLesson(lesson))
}

func TestValidateLessons_Duplicate(t *testing.T) {
	a := validLesson()
	b := validLesson()

	err := ValidateLessons([]*Lesson{a, b})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateLessonId)
}
