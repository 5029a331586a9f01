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

import "errors"

// Domain validation errors
var (
	// ErrInvalidLesson indicates a Lesson failed validation.
	ErrInvalidLesson = errors.New("invalid lesson")

	// ErrEmptyLessonId indicates the lesson Id field is empty.
	ErrEmptyLessonId = errors.New("lesson id cannot be empty")

	// ErrEmptyTitle indicates the lesson Title field is empty.
	ErrEmptyTitle = errors.New("lesson title cannot be empty")

	// ErrEmptyConcept indicates the lesson Concept field is empty.
	ErrEmptyConcept = errors.New("lesson concept cannot be empty")

	// ErrInvalidModuleId indicates a negative module id.
	ErrInvalidModuleId = errors.New("module id cannot be negative")

	// ErrDuplicateLessonId indicates two lessons share the same Id.
	ErrDuplicateLessonId = errors.New("duplicate lesson id")

	// ErrEmptyCurriculum indicates a curriculum document with no lessons.
	ErrEmptyCurriculum = errors.New("curriculum contains no lessons")
)
