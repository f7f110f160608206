package core

// SubplotThread pairs a subplot with its computed dormancy for ranking and
// prompt rendering.
type SubplotThread struct {
	Subplot   Subplot `json:"subplot"`
	LastTouch int     `json:"last_touch"` // chapter of the most recent touch
	Dormancy  int     `json:"dormancy"`   // chapters since last touch
}

// ContextBundle is the bounded, ranked subset of story memory selected for a
// single generation request.
//
// Invariant: no fact in CannotKnow appears in Facts. The bundle is
// deterministic given identical inputs and a fixed configuration.
type ContextBundle struct {
	POVCharacter   string `json:"pov_character"`
	CurrentChapter int    `json:"current_chapter"`

	// MustRemember is the POV character's recent direct experience; the
	// narrator should keep these present.
	MustRemember []string `json:"must_remember,omitempty"`
	// CannotKnow lists facts the POV character has no knowledge of at the
	// current narrative position; the narrator must never reference them.
	CannotKnow []Fact `json:"cannot_know,omitempty"`

	Summaries     []ChapterSummary `json:"summaries,omitempty"` // most recent chapter first
	Facts         []Fact           `json:"facts,omitempty"`
	Subplots      []SubplotThread  `json:"subplots,omitempty"` // most dormant first
	OpenQuestions []OpenQuestion   `json:"open_questions,omitempty"`
	Foreshadowing []Marker         `json:"foreshadowing,omitempty"`
}

// ContainsForbidden reports whether any selected fact also appears in the
// CannotKnow set. Used by tests and as a final check before prompt
// construction.
func (b ContextBundle) ContainsForbidden() bool {
	forbidden := make(map[string]struct{}, len(b.CannotKnow))
	for _, f := range b.CannotKnow {
		forbidden[f.Subject+"\x00"+f.Statement] = struct{}{}
	}
	for _, f := range b.Facts {
		if _, ok := forbidden[f.Subject+"\x00"+f.Statement]; ok {
			return true
		}
	}
	return false
}
