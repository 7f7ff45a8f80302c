package domain

import "errors"

// ErrNoMatch signals that a fuzzy todo/card lookup found zero candidates. It
// is converted into a soft {success:false} result at the intent-processor
// boundary, never propagated to the UI as an error.
var ErrNoMatch = errors.New("no matching record found")

// ClassificationMissError is thrown by the fallback matcher only when nothing
// at all matched. Help carries the user-facing list of supported phrasings.
type ClassificationMissError struct {
	Help string
}

func (e *ClassificationMissError) Error() string { return e.Help }

// BlockedPromptError is raised by the safety filter when input matches an
// internally generated notification-prompt signature. The outer pipeline
// turns it into a blocked result before any matcher or facade call.
type BlockedPromptError struct {
	Signature string
}

func (e *BlockedPromptError) Error() string {
	return "input matches an internal notification prompt signature"
}
