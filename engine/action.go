package engine

import "github.com/hupe1980/storymesh/core"

// actionInputs extracts the retrieval inputs (writing position, POV character
// and task description) from a typed action. The switch covers the closed
// core.ActionPayload set; an unknown payload yields empty inputs, which
// degrades retrieval rather than failing the request.
func actionInputs(action core.ActionPayload) (chapter int, povCharacter, taskDescription string) {
	switch a := action.(type) {
	case core.ContinueScene:
		return a.Chapter, a.POVCharacter, a.Direction
	case core.ReviseScene:
		return a.Chapter, a.POVCharacter, a.Notes
	case core.PlotOutline:
		return a.FromChapter, "", a.Premise
	case core.FreeForm:
		return a.Chapter, a.POVCharacter, a.Prompt
	default:
		return 0, "", ""
	}
}
