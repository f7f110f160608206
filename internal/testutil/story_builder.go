package testutil

import (
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/memory"
)

// StoryBuilder assembles a populated in-memory story store with a fluent API.
type StoryBuilder struct {
	store *memory.InMemoryStore
}

// NewStoryBuilder creates a builder around an empty store.
func NewStoryBuilder() *StoryBuilder {
	return &StoryBuilder{store: memory.NewInMemoryStore()}
}

// WithChapters records minimal summaries for chapters 1..n.
func (b *StoryBuilder) WithChapters(n int, characters ...string) *StoryBuilder {
	for ch := 1; ch <= n; ch++ {
		b.store.RecordSummary(core.ChapterSummary{
			Chapter:           ch,
			Summary:           "chapter events",
			CharactersPresent: characters,
		})
	}
	return b
}

// WithSummary records a full summary.
func (b *StoryBuilder) WithSummary(s core.ChapterSummary) *StoryBuilder {
	b.store.RecordSummary(s)
	return b
}

// WithKnowledge records a knowledge state.
func (b *StoryBuilder) WithKnowledge(state core.KnowledgeState) *StoryBuilder {
	b.store.RecordKnowledgeState(state)
	return b
}

// WithFact appends a fact.
func (b *StoryBuilder) WithFact(f core.Fact) *StoryBuilder {
	b.store.AddFact(f)
	return b
}

// WithSubplot registers a subplot and optionally its touches.
func (b *StoryBuilder) WithSubplot(sp core.Subplot, touches ...core.SubplotTouch) *StoryBuilder {
	b.store.AddSubplot(sp)
	for _, t := range touches {
		if err := b.store.TouchSubplot(t); err != nil {
			panic(err) // fixture bug, fail fast
		}
	}
	return b
}

// Build returns the populated store.
func (b *StoryBuilder) Build() *memory.InMemoryStore {
	return b.store
}
