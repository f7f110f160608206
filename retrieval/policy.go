package retrieval

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/logging"
)

// Config bounds the selection per category. Budgets are item-count ceilings,
// the in-process analogue of a token budget. Open questions and foreshadowing
// markers are never capped; they are small and high-value.
type Config struct {
	// MaxSummaries caps selected chapter summaries. Unresolved cliffhanger
	// chapters are included even beyond this ceiling.
	MaxSummaries int
	// MaxFacts caps selected facts.
	MaxFacts int
	// MaxSubplots caps surfaced subplot threads.
	MaxSubplots int
	// DormancyWindow is the maximum number of chapters since a subplot's last
	// touch for it to still be surfaced.
	DormancyWindow int
	// Seed, when non-zero, shuffles equal-rank ties with a seeded source for
	// variety across drafts. The same seed always yields the same bundle;
	// zero keeps the fully specified tie-break ordering.
	Seed int64
}

// DefaultConfig returns budgets suitable for a mid-length novel draft.
func DefaultConfig() Config {
	return Config{MaxSummaries: 5, MaxFacts: 12, MaxSubplots: 3, DormancyWindow: 6}
}

// Options holds dependency overrides passed to New().
type Options struct {
	Logger logging.Logger
}

// Policy implements the deterministic context retrieval algorithm. Stateless;
// safe for concurrent use.
type Policy struct {
	cfg    Config
	logger logging.Logger
}

// New constructs a Policy with the given budgets.
func New(cfg Config, optFns ...func(o *Options)) *Policy {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Policy{cfg: cfg, logger: opts.Logger}
}

// Select assembles the context bundle for the current writing position.
//
// Priority order, ties broken by recency (most recent chapter first):
//  1. POV constraints from the character's knowledge state
//  2. Chapter summaries, descending chapter, cliffhangers never evicted
//  3. Facts scoped to the POV character, scene characters and mentioned
//     locations, minus everything the POV character cannot know
//  4. Unresolved subplots inside the dormancy window, most dormant first
//  5. Unresolved open questions and unpaid foreshadowing, always carried
//
// A missing knowledge state degrades to an empty-constraint bundle with a
// logged warning; retrieval failures never block generation, they only
// reduce context quality.
func (p *Policy) Select(currentChapter int, povCharacterID, taskDescription string, store core.StoryStore) core.ContextBundle {
	bundle := core.ContextBundle{
		POVCharacter:   povCharacterID,
		CurrentChapter: currentChapter,
	}

	state, haveState := store.KnowledgeStateAt(povCharacterID, currentChapter)
	if haveState {
		bundle.MustRemember = state.RecentExperiences
		for _, f := range store.Facts() {
			if !state.KnowsSubject(f.Subject) {
				bundle.CannotKnow = append(bundle.CannotKnow, f)
			}
		}
	} else if povCharacterID != "" {
		p.logger.Warn("no knowledge state for character %s at or before chapter %d; POV constraints degraded to empty",
			povCharacterID, currentChapter)
	}

	var rng *rand.Rand
	if p.cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(p.cfg.Seed))
	}

	bundle.Summaries = p.selectSummaries(currentChapter, store)
	bundle.Facts = p.selectFacts(povCharacterID, taskDescription, bundle, store, state, haveState, rng)
	bundle.Subplots = p.selectSubplots(currentChapter, store, rng)

	for _, q := range store.OpenQuestions() {
		if !q.Resolved {
			bundle.OpenQuestions = append(bundle.OpenQuestions, q)
		}
	}
	for _, m := range store.Markers() {
		if m.Kind == core.MarkerForeshadowing && !m.PaidOff {
			bundle.Foreshadowing = append(bundle.Foreshadowing, m)
		}
	}

	return bundle
}

// selectSummaries picks summaries of finalized chapters in descending chapter
// order up to the budget. Chapters that still end on an unresolved
// cliffhanger have retrieval priority over plain recency: they are included
// even when the budget would otherwise evict them.
func (p *Policy) selectSummaries(currentChapter int, store core.StoryStore) []core.ChapterSummary {
	var candidates []core.ChapterSummary
	for _, s := range store.Summaries() {
		if s.Chapter < currentChapter {
			candidates = append(candidates, s)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Chapter > candidates[j].Chapter })

	var selected []core.ChapterSummary
	for i, s := range candidates {
		if i < p.cfg.MaxSummaries || s.Cliffhanger {
			selected = append(selected, s)
		}
	}
	return selected
}

// selectFacts scopes facts to the POV character, the characters present in
// the current scene and locations named in the task description, excluding
// every fact the POV character cannot know. Ranked by source chapter,
// most recent first.
func (p *Policy) selectFacts(
	povCharacterID, taskDescription string,
	bundle core.ContextBundle,
	store core.StoryStore,
	state core.KnowledgeState,
	haveState bool,
	rng *rand.Rand,
) []core.Fact {
	sceneCharacters := make(map[string]struct{})
	if prev, ok := store.Summary(bundle.CurrentChapter - 1); ok {
		for _, c := range prev.CharactersPresent {
			sceneCharacters[c] = struct{}{}
		}
	}
	task := strings.ToLower(taskDescription)

	var selected []core.Fact
	for _, f := range store.Facts() {
		if haveState && !state.KnowsSubject(f.Subject) {
			continue
		}

		relevant := f.Subject == povCharacterID
		if _, ok := sceneCharacters[f.Subject]; ok {
			relevant = true
		}
		if f.SubjectKind == core.SubjectLocation && task != "" &&
			strings.Contains(task, strings.ToLower(f.Subject)) {
			relevant = true
		}
		if relevant {
			selected = append(selected, f)
		}
	}

	if rng != nil {
		// Seeded shuffle then a stable sort on the primary key alone:
		// equal-rank facts keep the shuffled order.
		rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })
		sort.SliceStable(selected, func(i, j int) bool {
			return selected[i].SourceChapter > selected[j].SourceChapter
		})
	} else {
		sort.SliceStable(selected, func(i, j int) bool {
			if selected[i].SourceChapter != selected[j].SourceChapter {
				return selected[i].SourceChapter > selected[j].SourceChapter
			}
			if selected[i].Subject != selected[j].Subject {
				return selected[i].Subject < selected[j].Subject
			}
			return selected[i].Statement < selected[j].Statement
		})
	}

	if p.cfg.MaxFacts > 0 && len(selected) > p.cfg.MaxFacts {
		selected = selected[:p.cfg.MaxFacts]
	}
	return selected
}

// selectSubplots surfaces unresolved subplots whose most recent touch falls
// inside the dormancy window, ranked most dormant first so neglected threads
// come back into view. Subplots that were never touched have no dormancy to
// compute and are skipped.
func (p *Policy) selectSubplots(currentChapter int, store core.StoryStore, rng *rand.Rand) []core.SubplotThread {
	var threads []core.SubplotThread
	for _, sp := range store.Subplots() {
		if sp.Status.Terminal() {
			continue
		}
		touches := store.Touches(sp.ID)
		if len(touches) == 0 {
			continue
		}
		last := touches[len(touches)-1].Chapter
		dormancy := currentChapter - last
		if dormancy < 0 || dormancy > p.cfg.DormancyWindow {
			continue
		}
		threads = append(threads, core.SubplotThread{Subplot: sp, LastTouch: last, Dormancy: dormancy})
	}

	if rng != nil {
		rng.Shuffle(len(threads), func(i, j int) { threads[i], threads[j] = threads[j], threads[i] })
		sort.SliceStable(threads, func(i, j int) bool {
			return threads[i].Dormancy > threads[j].Dormancy
		})
	} else {
		sort.Slice(threads, func(i, j int) bool {
			if threads[i].Dormancy != threads[j].Dormancy {
				return threads[i].Dormancy > threads[j].Dormancy
			}
			return threads[i].Subplot.ID < threads[j].Subplot.ID
		})
	}

	if p.cfg.MaxSubplots > 0 && len(threads) > p.cfg.MaxSubplots {
		threads = threads[:p.cfg.MaxSubplots]
	}
	return threads
}
