// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateLesson validates a Lesson according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Title must not be empty
//   - Concept must not be empty
//   - ModuleId must not be negative
//
// NOT validated:
//   - Validator and Phase (optional; canonicalization substitutes a
//     sentinel for missing values)
func ValidateLesson(lesson *Lesson) error {
	if lesson == nil {
		return fmt.Errorf("%w: lesson is nil", ErrInvalidLesson)
	}

	if lesson.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLesson, ErrEmptyLessonId)
	}

	if lesson.Title == "" {
		return fmt.Errorf("%w (%s): %w", ErrInvalidLesson, lesson.Id, ErrEmptyTitle)
	}

	if lesson.Concept == "" {
		return fmt.Errorf("%w (%s): %w", ErrInvalidLesson, lesson.Id, ErrEmptyConcept)
	}

	if lesson.ModuleId < 0 {
		return fmt.Errorf("%w (%s): %w", ErrInvalidLesson, lesson.Id, ErrInvalidModuleId)
	}

	return nil
}

// ValidateLessons validates every lesson and rejects duplicate ids.
func ValidateLessons(lessons []*Lesson) error {
	seen := make(map[string]struct{}, len(lessons))
	for _, lesson := range lessons {
		if err := ValidateLesson(lesson); err != nil {
			return err
		}
		if _, ok := seen[lesson.Id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateLessonId, lesson.Id)
		}
		seen[lesson.Id] = struct{}{}
	}
	return nil
}
