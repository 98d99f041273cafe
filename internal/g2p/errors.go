package g2p

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is matched by every *EngineUnavailableError.
var ErrEngineUnavailable = errors.New("external phonemizer engine unavailable")

// UnsupportedLanguageError reports a dialect the lexicon does not cover.
type UnsupportedLanguageError struct {
	Dialect string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q (expected %s|%s)", e.Dialect, AmericanEnglish, BritishEnglish)
}

// EngineUnavailableError reports that the fallback engine could not be
// started at all, as opposed to failing on one particular token.
type EngineUnavailableError struct {
	Engine string // executable name or path
	Hint   string // what the user can do about it
	Err    error
}

func (e *EngineUnavailableError) Error() string {
	msg := fmt.Sprintf("%s is not available", e.Engine)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}

	return msg
}

func (e *EngineUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEngineUnavailable) true.
func (e *EngineUnavailableError) Is(target error) bool {
	return target == ErrEngineUnavailable
}

// UnresolvedTokenWarning notes a token the primary strategy could not
// resolve. It is informational and never aborts a conversion.
type UnresolvedTokenWarning struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (w UnresolvedTokenWarning) String() string {
	return fmt.Sprintf("token %d %q has no lexicon entry", w.Index, w.Text)
}
