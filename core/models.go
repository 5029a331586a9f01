package core

// Lesson represents a single unit of curriculum content to be embedded
// and indexed. Lessons are produced upstream and are immutable here;
// they are identified by their stable Id.
type Lesson struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Concept   string `json:"concept"`
	Validator string `json:"validator"`
	Phase     string `json:"phase,omitempty"` // optional; may be empty
	ModuleId  int    `json:"moduleId"`
}

// VectorMetadata is the typed metadata stored alongside a lesson's
// vector, both in the local cache and in the remote index.
type VectorMetadata struct {
	Title    string `json:"title"`
	Concept  string `json:"concept"`
	Phase    string `json:"phase"`
	ModuleId int    `json:"moduleId"`
}

// Metadata builds the vector metadata for a lesson.
// Missing optional fields carry the UnknownField sentinel so the shape
// stays stable across lessons.
func (l *Lesson) Metadata() VectorMetadata {
	phase := l.Phase
	if phase == "" {
		phase = UnknownField
	}
	return VectorMetadata{
		Title:    l.Title,
		Concept:  l.Concept,
		Phase:    phase,
		ModuleId: l.ModuleId,
	}
}

// Map converts the metadata to the generic mapping shape expected by
// the remote index's bulk-insert contract.
func (m VectorMetadata) Map() map[string]any {
	return map[string]any{
		"title":    m.Title,
		"concept":  m.Concept,
		"phase":    m.Phase,
		"moduleId": m.ModuleId,
	}
}
