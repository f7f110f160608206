// Package prompt renders the two boundary-call inputs (system instructions,
// user prompt) from a resolved agent descriptor, a context bundle and a typed
// action. This lives in internal to avoid committing to public API stability
// prematurely; the engine exposes template overrides as plain strings.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/hupe1980/storymesh/core"
)

// Templates holds the parsed system and user prompt templates.
type Templates struct {
	system *template.Template
	user   *template.Template
}

// funcs are the helpers available inside prompt templates.
var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// New parses the given template texts. Empty strings select the defaults.
func New(systemText, userText string) (*Templates, error) {
	if systemText == "" {
		systemText = defaultSystem
	}
	if userText == "" {
		userText = defaultUser
	}

	system, err := template.New("system").Funcs(funcs).Parse(systemText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system template: %w", err)
	}
	user, err := template.New("user").Funcs(funcs).Parse(userText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user template: %w", err)
	}

	return &Templates{system: system, user: user}, nil
}

// Default returns the built-in templates.
func Default() *Templates {
	t, err := New("", "")
	if err != nil {
		panic(err) // default templates are compile-time constants
	}
	return t
}

// data is the render context shared by both templates.
type data struct {
	Instruction string
	Bundle      core.ContextBundle
	ActionKind  string
	Task        string
}

// Render produces the system and user prompts for one generation request.
func (t *Templates) Render(instruction string, bundle core.ContextBundle, action core.ActionPayload) (string, string, error) {
	task, err := taskBody(action)
	if err != nil {
		return "", "", err
	}

	d := data{
		Instruction: instruction,
		Bundle:      bundle,
		ActionKind:  action.Kind(),
		Task:        task,
	}

	var sysBuf, userBuf bytes.Buffer
	if err := t.system.Execute(&sysBuf, d); err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := t.user.Execute(&userBuf, d); err != nil {
		return "", "", fmt.Errorf("failed to render user prompt: %w", err)
	}

	return sysBuf.String(), userBuf.String(), nil
}

// taskBody renders the action-specific instruction block. The switch is
// exhaustive over the closed core.ActionPayload set; adding an action type
// means adding a case here.
func taskBody(action core.ActionPayload) (string, error) {
	switch a := action.(type) {
	case core.ContinueScene:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Continue the scene in chapter %d from %s's point of view.\n", a.Chapter, a.POVCharacter)
		if a.Direction != "" {
			fmt.Fprintf(&sb, "Direction: %s\n", a.Direction)
		}
		if a.SceneSoFar != "" {
			fmt.Fprintf(&sb, "\nScene so far:\n%s", a.SceneSoFar)
		}
		return sb.String(), nil
	case core.ReviseScene:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Revise the following draft from chapter %d (POV %s).\n", a.Chapter, a.POVCharacter)
		if a.Notes != "" {
			fmt.Fprintf(&sb, "Revision notes: %s\n", a.Notes)
		}
		fmt.Fprintf(&sb, "\nDraft:\n%s", a.Draft)
		return sb.String(), nil
	case core.PlotOutline:
		return fmt.Sprintf("Outline chapters %d through %d.\nPremise: %s",
			a.FromChapter, a.ToChapter, a.Premise), nil
	case core.FreeForm:
		return a.Prompt, nil
	case nil:
		return "", fmt.Errorf("generation request carries no action")
	default:
		return "", fmt.Errorf("unhandled action kind %q", action.Kind())
	}
}

const defaultSystem = `{{.Instruction}}
{{if .Bundle.MustRemember}}
The point-of-view character vividly remembers:
{{range .Bundle.MustRemember}}- {{.}}
{{end}}{{end}}{{if .Bundle.CannotKnow}}
The point-of-view character does NOT know the following. Never reference, hint at, or narrate around any of it:
{{range .Bundle.CannotKnow}}- {{.Statement}}
{{end}}{{end}}`

const defaultUser = `{{if .Bundle.Summaries}}Story so far (most recent first):
{{range .Bundle.Summaries}}Chapter {{.Chapter}}: {{.Summary}}
{{end}}
{{end}}{{if .Bundle.Facts}}Established facts:
{{range .Bundle.Facts}}- {{.Statement}}
{{end}}
{{end}}{{if .Bundle.Subplots}}Subplot threads to keep alive (most neglected first):
{{range .Bundle.Subplots}}- {{.Subplot.Name}} (last touched chapter {{.LastTouch}})
{{end}}
{{end}}{{if .Bundle.OpenQuestions}}Unresolved questions:
{{range .Bundle.OpenQuestions}}- {{.Question}}
{{end}}
{{end}}{{if .Bundle.Foreshadowing}}Planted foreshadowing awaiting payoff:
{{range .Bundle.Foreshadowing}}- {{.Text}}
{{end}}
{{end}}{{.Task}}`
