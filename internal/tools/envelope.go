package tools

import "errors"

// ContentText is the only content block kind produced by this server.
const ContentText = "text"

// ContentBlock is a single piece of tool output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope is the uniform result of one invocation.
type Envelope struct {
	Content []ContentBlock `json:"content"`
}

// Text returns an envelope holding a single text block.
func Text(text string) Envelope {
	return Envelope{Content: []ContentBlock{{Type: ContentText, Text: text}}}
}

// Failure is a handler error tagged with the action that failed.
// It is rendered to the caller as "Error <action>: <message>".
type Failure struct {
	Action string
	Err    error
}

// Fail wraps err as a Failure for action.
func Fail(action string, err error) *Failure {
	return &Failure{Action: action, Err: err}
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return f.Action + ": " + errorText(f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message is the caller-facing text of the failure.
func (f *Failure) Message() string {
	return "Error " + f.Action + ": " + errorText(f.Err)
}

// FromError renders a handler error as an envelope.
func FromError(err error) Envelope {
	var failure *Failure
	if errors.As(err, &failure) {
		return Text(failure.Message())
	}
	return Text(errorText(err))
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// normalize guarantees at least one content block and a type on every block.
func normalize(env Envelope) Envelope {
	if len(env.Content) == 0 {
		return Text("")
	}
	for i := range env.Content {
		if env.Content[i].Type == "" {
			env.Content[i].Type = ContentText
		}
	}
	return env
}
