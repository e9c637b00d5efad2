package errors

import "errors"

// SGF load errors. Everything except ErrCharset is structural.
var (
	ErrNoGame             = errors.New("SGF load error: found no game")
	ErrUnexpectedByte     = errors.New("SGF load error: unexpected byte before (")
	ErrUnacceptableByte   = errors.New("SGF load error: unacceptable byte while expecting key")
	ErrUnbalanced         = errors.New("SGF load error: reached end of input")
	ErrValueWithoutKey    = errors.New("SGF load error: value started with [ but key was empty")
	ErrMultipleMoves      = errors.New("SGF load error: multiple moves in node")
	ErrEscapeAtEnd        = errors.New("SGF load error: escape character at end of input")
	ErrSubtreeWithoutNode = errors.New("SGF load error: new subtree started but node was nil")
	ErrSubtreeEnd         = errors.New("SGF load error: subtree ended but local root was nil")
	ErrCharset            = errors.New("SGF load error: charset conversion failed")
)

var (
	ErrSessionNotFound = errors.New("session was not found")
	ErrRecordNotFound  = errors.New("record was not found")
	ErrUnknownOp       = errors.New("unknown navigation operation")
	ErrTabLimit        = errors.New("tab limit exceeded")
	ErrNoSuchTab       = errors.New("no such tab")
	ErrBadMove         = errors.New("move is not a point on this board")
	ErrEngineDisabled  = errors.New("analysis engine is not running")
	ErrArchiveDisabled = errors.New("archive is not configured")
	ErrInternal        = errors.New("internal error")
)
