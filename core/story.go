package core

// SubjectKind categorizes what a Fact is about.
type SubjectKind string

const (
	// SubjectCharacter marks a fact about a character.
	SubjectCharacter SubjectKind = "character"
	// SubjectLocation marks a fact about a location.
	SubjectLocation SubjectKind = "location"
	// SubjectObject marks a fact about an object.
	SubjectObject SubjectKind = "object"
)

// Confidence distinguishes facts stated explicitly in the text from facts
// inferred by analysis.
type Confidence string

const (
	// ConfidenceExplicit marks a fact stated outright in the story text.
	ConfidenceExplicit Confidence = "explicit"
	// ConfidenceInferred marks a fact derived from the text by analysis.
	ConfidenceInferred Confidence = "inferred"
)

// Fact is a subject-scoped assertion accumulated in story memory. Facts are
// append-only; contradictory facts about the same subject are a detectable
// anomaly, not a silent overwrite.
type Fact struct {
	Subject       string      `json:"subject"`
	SubjectKind   SubjectKind `json:"subject_kind"`
	Statement     string      `json:"statement"`
	Confidence    Confidence  `json:"confidence"`
	SourceChapter int         `json:"source_chapter"`
}

// KeyEvent is a notable event within a chapter, optionally causally linked to
// an earlier event.
type KeyEvent struct {
	Description string `json:"description"`
	CausedBy    string `json:"caused_by,omitempty"` // description of the triggering event, if any
}

// MarkerKind classifies narrative markers.
type MarkerKind string

const (
	// MarkerForeshadowing marks a planted setup awaiting a payoff.
	MarkerForeshadowing MarkerKind = "foreshadowing"
	// MarkerPayoff marks the resolution of an earlier setup.
	MarkerPayoff MarkerKind = "payoff"
)

// Marker records a foreshadowing or payoff beat.
type Marker struct {
	Kind    MarkerKind `json:"kind"`
	Text    string     `json:"text"`
	Chapter int        `json:"chapter"`
	PaidOff bool       `json:"paid_off"`
}

// OpenQuestion is an unresolved question the narrative still owes an answer
// to. Open questions are small and high-value; retrieval always carries
// unresolved ones regardless of budget.
type OpenQuestion struct {
	Question     string `json:"question"`
	RaisedIn     int    `json:"raised_in"`
	Resolved     bool   `json:"resolved"`
	ResolvedIn   int    `json:"resolved_in,omitempty"`
	RelatedActor string `json:"related_actor,omitempty"`
}

// ChapterSummary is the once-per-chapter distillation produced after a
// chapter's content is finalized. Immutable thereafter; re-summarization
// replaces, it does not append.
type ChapterSummary struct {
	Chapter           int        `json:"chapter"`
	Summary           string     `json:"summary"`
	KeyEvents         []KeyEvent `json:"key_events,omitempty"`
	CharactersPresent []string   `json:"characters_present,omitempty"`
	Locations         []string   `json:"locations,omitempty"`
	Foreshadowing     []Marker   `json:"foreshadowing,omitempty"`
	OpenQuestions     []string   `json:"open_questions,omitempty"`
	Cliffhanger       bool       `json:"cliffhanger"` // true while the chapter-ending hook is unresolved
	TokenEstimate     int        `json:"token_estimate"`
}

// KnowledgeState captures what a character knows, believes and wants as of a
// given chapter. One state exists per (character, chapter) pair; later states
// supersede earlier ones. Retrieval must always use the most recent state at
// or before the current writing position - a character cannot know the
// future.
type KnowledgeState struct {
	CharacterID       string              `json:"character_id"`
	AsOfChapter       int                 `json:"as_of_chapter"`
	KnownFacts        map[string][]string `json:"known_facts,omitempty"` // subject -> statements the character knows
	Beliefs           []string            `json:"beliefs,omitempty"`     // possibly false
	Secrets           []string            `json:"secrets,omitempty"`
	Relationships     map[string]string   `json:"relationships,omitempty"` // other character id -> relation
	EmotionalState    string              `json:"emotional_state,omitempty"`
	ActiveGoals       []string            `json:"active_goals,omitempty"`
	RecentExperiences []string            `json:"recent_experiences,omitempty"`
}

// KnowsSubject reports whether the character has any knowledge of the given
// subject at this state: themselves, anyone they hold a relationship with, or
// any subject they know at least one fact about.
func (s KnowledgeState) KnowsSubject(subject string) bool {
	if subject == s.CharacterID {
		return true
	}
	if _, ok := s.Relationships[subject]; ok {
		return true
	}
	if _, ok := s.KnownFacts[subject]; ok {
		return true
	}
	return false
}

// SubplotStatus is the ordered progression a subplot moves through.
type SubplotStatus string

const (
	// SubplotSetup is the initial planting of a subplot.
	SubplotSetup SubplotStatus = "setup"
	// SubplotDeveloping covers active but unescalated progression.
	SubplotDeveloping SubplotStatus = "developing"
	// SubplotEscalating covers rising stakes.
	SubplotEscalating SubplotStatus = "escalating"
	// SubplotClimax is the peak of the thread.
	SubplotClimax SubplotStatus = "climax"
	// SubplotResolved closes a thread by payoff.
	SubplotResolved SubplotStatus = "resolved"
	// SubplotAbandoned closes a thread without payoff.
	SubplotAbandoned SubplotStatus = "abandoned"
)

// Terminal reports whether the status ends the subplot's progression.
func (s SubplotStatus) Terminal() bool {
	return s == SubplotResolved || s == SubplotAbandoned
}

// Subplot is a secondary narrative thread with a tension curve mapping
// chapter number to tension level. The curve is monotonically increasing in
// chapter number.
type Subplot struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Status  SubplotStatus `json:"status"`
	Tension map[int]int   `json:"tension,omitempty"` // chapter -> tension level
}

// SubplotTouch is append-only evidence that a subplot was advanced in a
// chapter; touches are used to compute dormancy.
type SubplotTouch struct {
	SubplotID string `json:"subplot_id"`
	Chapter   int    `json:"chapter"`
	Kind      string `json:"kind"` // e.g. "mention", "advance", "escalate"
	Tension   int    `json:"tension"`
}

// StoryStore is the read-only view of story memory consumed by retrieval.
// The surrounding application owns the store and its write contract; the
// generation core only reads it.
type StoryStore interface {
	// Summaries returns all chapter summaries ordered by ascending chapter.
	Summaries() []ChapterSummary
	// Summary returns the summary for a single chapter.
	Summary(chapter int) (ChapterSummary, bool)
	// KnowledgeStateAt returns the most recent knowledge state for the
	// character at or before the given chapter.
	KnowledgeStateAt(characterID string, chapter int) (KnowledgeState, bool)
	// Facts returns all accumulated facts.
	Facts() []Fact
	// FactsAbout returns the facts whose subject matches.
	FactsAbout(subject string) []Fact
	// Subplots returns all subplot records.
	Subplots() []Subplot
	// Touches returns the append-only touch history for a subplot ordered by
	// ascending chapter.
	Touches(subplotID string) []SubplotTouch
	// OpenQuestions returns all recorded open questions.
	OpenQuestions() []OpenQuestion
	// Markers returns all foreshadowing/payoff markers.
	Markers() []Marker
}
