package core

// Status classifies the terminal outcome of a generation job.
type Status string

const (
	// StatusSuccess indicates the backend produced text and the job was not
	// cancelled before the result was consumed.
	StatusSuccess Status = "success"
	// StatusCancelled indicates the job was abandoned by an explicit cancel,
	// a caller disconnect or a timeout. It is a first-class outcome, not an
	// error.
	StatusCancelled Status = "cancelled"
	// StatusError indicates the backend failed or returned a payload that
	// could not be parsed.
	StatusError Status = "error"
)

// Usage captures token usage statistics reported by a generator backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationRequest is the boundary payload consumed from the UI/API layer.
//
// GenerationID is optional; when empty the engine generates one and returns
// it in the response so the caller can issue a later explicit cancel.
type GenerationRequest struct {
	GenerationID string
	AgentTarget  string
	Action       ActionPayload
}

// GenerationResponse is the boundary payload returned for every generation
// request. A cancelled outcome is a distinct, non-error status so callers can
// distinguish "the user chose to stop" from "something broke".
type GenerationResponse struct {
	Status       Status `json:"status"`
	Result       string `json:"result,omitempty"`
	GenerationID string `json:"generation_id"`
	Agent        string `json:"agent"`
	Usage        *Usage `json:"usage,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// ActionPayload is the closed set of typed generation actions. Concrete
// payloads implement the unexported isAction marker so that handling code can
// switch exhaustively over a known set instead of digging through an untyped
// property bag.
type ActionPayload interface {
	isAction()

	// Kind returns the stable action name used in responses and logs.
	Kind() string
}

// ContinueScene asks the generator to continue the scene currently being
// written.
type ContinueScene struct {
	Chapter      int    // chapter currently being written
	POVCharacter string // point-of-view character id
	SceneSoFar   string // text of the scene written so far
	Direction    string // optional authorial guidance for where the scene should head
}

func (ContinueScene) isAction() {}

// Kind returns the stable action name.
func (ContinueScene) Kind() string { return "continue-writing" }

// ReviseScene asks the generator to rework an existing draft according to
// revision notes.
type ReviseScene struct {
	Chapter      int
	POVCharacter string
	Draft        string // the draft to revise
	Notes        string // what to change
}

func (ReviseScene) isAction() {}

// Kind returns the stable action name.
func (ReviseScene) Kind() string { return "revise-scene" }

// PlotOutline asks the generator to outline upcoming chapters from a premise.
type PlotOutline struct {
	FromChapter int
	ToChapter   int
	Premise     string
}

func (PlotOutline) isAction() {}

// Kind returns the stable action name.
func (PlotOutline) Kind() string { return "plot-outline" }

// FreeForm carries an arbitrary authoring instruction that does not fit a
// more specific action.
type FreeForm struct {
	Chapter      int
	POVCharacter string
	Prompt       string
}

func (FreeForm) isAction() {}

// Kind returns the stable action name.
func (FreeForm) Kind() string { return "free-form" }
