package core

import (
	"encoding/json"
	"fmt"
	"os"
)

// Curriculum is the upstream-produced document listing all lessons to
// embed. The lesson order in the document is the processing order.
type Curriculum struct {
	Lessons []*Lesson `json:"lessons"`
}

// LoadCurriculum reads and validates a curriculum document.
// An empty lesson list is an error: running the pipeline against
// nothing is always a configuration mistake.
func LoadCurriculum(path string) (*Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curriculum: %w", err)
	}

	var curriculum Curriculum
	if err := json.Unmarshal(data, &curriculum); err != nil {
		return nil, fmt.Errorf("parsing curriculum %s: %w", path, err)
	}

	if len(curriculum.Lessons) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCurriculum, path)
	}

	if err := ValidateLessons(curriculum.Lessons); err != nil {
		return nil, err
	}

	return &curriculum, nil
}
