package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/storymesh/core"
)

// InMemoryStore is a process-local story memory store. The generation core
// only reads it (through core.StoryStore); the write methods exist for the
// surrounding application that accumulates story facts as chapters are
// finalized.
//
// Concurrency: protected by RWMutex. All read accessors return copies so
// callers cannot mutate internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	summaries     map[int]core.ChapterSummary            // chapter -> summary
	knowledge     map[string]map[int]core.KnowledgeState // characterID -> chapter -> state
	facts         []core.Fact                            // append-only
	subplots      map[string]core.Subplot                // subplotID -> subplot
	touches       map[string][]core.SubplotTouch         // subplotID -> touches, ascending chapter
	openQuestions []core.OpenQuestion                    // append-only
	markers       []core.Marker                          // append-only
}

// NewInMemoryStore creates an empty story memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		summaries: make(map[int]core.ChapterSummary),
		knowledge: make(map[string]map[int]core.KnowledgeState),
		subplots:  make(map[string]core.Subplot),
		touches:   make(map[string][]core.SubplotTouch),
	}
}

// RecordSummary stores the summary for a chapter. Summaries are produced once
// per chapter after its content is finalized; re-recording replaces the
// previous summary, it does not append.
func (s *InMemoryStore) RecordSummary(summary core.ChapterSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.Chapter] = summary
}

// RecordKnowledgeState stores a character's knowledge state for a chapter.
// One state exists per (character, chapter) pair; later states supersede
// earlier ones for retrieval.
func (s *InMemoryStore) RecordKnowledgeState(state core.KnowledgeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.knowledge[state.CharacterID]; !ok {
		s.knowledge[state.CharacterID] = make(map[int]core.KnowledgeState)
	}
	s.knowledge[state.CharacterID][state.AsOfChapter] = state
}

// AddFact appends a fact. Facts accumulate; contradictions are surfaced by
// Contradictions, never silently overwritten.
func (s *InMemoryStore) AddFact(fact core.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facts = append(s.facts, fact)
}

// AddSubplot registers or replaces a subplot record.
func (s *InMemoryStore) AddSubplot(subplot core.Subplot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subplots[subplot.ID] = subplot
}

// TouchSubplot appends a touch for the subplot. It returns an error if the
// subplot is unknown or if the touch would make the tension curve decrease,
// since the curve is monotonically increasing in chapter number.
func (s *InMemoryStore) TouchSubplot(touch core.SubplotTouch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.subplots[touch.SubplotID]
	if !ok {
		return fmt.Errorf("touch subplot %s: unknown subplot", touch.SubplotID)
	}

	// Validate against the touch's chapter-ordered neighbors so out-of-order
	// recording cannot sneak a dip into the curve.
	existing := s.touches[touch.SubplotID]
	for i := len(existing) - 1; i >= 0; i-- {
		if existing[i].Chapter <= touch.Chapter {
			if touch.Tension < existing[i].Tension {
				return fmt.Errorf("touch subplot %s: tension %d at chapter %d below %d at chapter %d",
					touch.SubplotID, touch.Tension, touch.Chapter, existing[i].Tension, existing[i].Chapter)
			}
			break
		}
	}
	for i := 0; i < len(existing); i++ {
		if existing[i].Chapter >= touch.Chapter {
			if touch.Tension > existing[i].Tension {
				return fmt.Errorf("touch subplot %s: tension %d at chapter %d above %d at chapter %d",
					touch.SubplotID, touch.Tension, touch.Chapter, existing[i].Tension, existing[i].Chapter)
			}
			break
		}
	}

	s.touches[touch.SubplotID] = append(existing, touch)
	sort.Slice(s.touches[touch.SubplotID], func(i, j int) bool {
		return s.touches[touch.SubplotID][i].Chapter < s.touches[touch.SubplotID][j].Chapter
	})

	if sp.Tension == nil {
		sp.Tension = make(map[int]int)
	}
	sp.Tension[touch.Chapter] = touch.Tension
	s.subplots[touch.SubplotID] = sp

	return nil
}

// SetSubplotStatus advances a subplot's status.
func (s *InMemoryStore) SetSubplotStatus(subplotID string, status core.SubplotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.subplots[subplotID]
	if !ok {
		return fmt.Errorf("set status %s: unknown subplot", subplotID)
	}
	sp.Status = status
	s.subplots[subplotID] = sp
	return nil
}

// AddOpenQuestion appends an open question.
func (s *InMemoryStore) AddOpenQuestion(q core.OpenQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openQuestions = append(s.openQuestions, q)
}

// ResolveOpenQuestion marks the first matching unresolved question resolved.
func (s *InMemoryStore) ResolveOpenQuestion(question string, chapter int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.openQuestions {
		if !s.openQuestions[i].Resolved && s.openQuestions[i].Question == question {
			s.openQuestions[i].Resolved = true
			s.openQuestions[i].ResolvedIn = chapter
			return
		}
	}
}

// AddMarker appends a foreshadowing/payoff marker.
func (s *InMemoryStore) AddMarker(m core.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append(s.markers, m)
}

// Contradictions returns pairs of facts about the subject whose statements
// disagree (same subject, different statements at the same confidence about
// an identical statement prefix are left to the caller; here two explicit
// facts with differing statements count as a conflict candidate pair).
func (s *InMemoryStore) Contradictions(subject string) [][2]core.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var about []core.Fact
	for _, f := range s.facts {
		if f.Subject == subject {
			about = append(about, f)
		}
	}

	var pairs [][2]core.Fact
	for i := 0; i < len(about); i++ {
		for j := i + 1; j < len(about); j++ {
			if conflicts(about[i], about[j]) {
				pairs = append(pairs, [2]core.Fact{about[i], about[j]})
			}
		}
	}
	return pairs
}

// conflicts reports whether two facts about the same subject assert different
// things at explicit confidence. Inferred facts never count as conflicts; an
// inference disagreeing with text is expected noise.
func conflicts(a, b core.Fact) bool {
	return a.Confidence == core.ConfidenceExplicit &&
		b.Confidence == core.ConfidenceExplicit &&
		a.Statement != b.Statement
}

// Summaries returns all chapter summaries ordered by ascending chapter.
func (s *InMemoryStore) Summaries() []core.ChapterSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.ChapterSummary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chapter < out[j].Chapter })
	return out
}

// Summary returns the summary for a single chapter.
func (s *InMemoryStore) Summary(chapter int) (core.ChapterSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.summaries[chapter]
	return sum, ok
}

// KnowledgeStateAt returns the most recent knowledge state for the character
// at or before the given chapter. Later states are never returned: a
// character cannot know the future.
func (s *InMemoryStore) KnowledgeStateAt(characterID string, chapter int) (core.KnowledgeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states, ok := s.knowledge[characterID]
	if !ok {
		return core.KnowledgeState{}, false
	}

	best := -1
	for asOf := range states {
		if asOf <= chapter && asOf > best {
			best = asOf
		}
	}
	if best < 0 {
		return core.KnowledgeState{}, false
	}
	return states[best], true
}

// Facts returns a copy of all accumulated facts.
func (s *InMemoryStore) Facts() []core.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Fact, len(s.facts))
	copy(out, s.facts)
	return out
}

// FactsAbout returns the facts whose subject matches.
func (s *InMemoryStore) FactsAbout(subject string) []core.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Fact
	for _, f := range s.facts {
		if f.Subject == subject {
			out = append(out, f)
		}
	}
	return out
}

// Subplots returns all subplot records ordered by id for determinism.
func (s *InMemoryStore) Subplots() []core.Subplot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Subplot, 0, len(s.subplots))
	for _, sp := range s.subplots {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Touches returns the touch history for a subplot ordered by ascending chapter.
func (s *InMemoryStore) Touches(subplotID string) []core.SubplotTouch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.touches[subplotID]
	out := make([]core.SubplotTouch, len(src))
	copy(out, src)
	return out
}

// OpenQuestions returns a copy of all recorded open questions.
func (s *InMemoryStore) OpenQuestions() []core.OpenQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.OpenQuestion, len(s.openQuestions))
	copy(out, s.openQuestions)
	return out
}

// Markers returns a copy of all foreshadowing/payoff markers.
func (s *InMemoryStore) Markers() []core.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}
