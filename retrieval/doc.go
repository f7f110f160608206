// Package retrieval selects a bounded, relevance-ranked subset of story
// memory for injection into a generation request.
//
// Selection is strictly deterministic: explicit priority ordering with
// recency tie-breaks, no ambient randomness. The correctness-critical output
// is the POV constraint: a narrator must never be handed facts its
// point-of-view character does not know at the current narrative position.
package retrieval
