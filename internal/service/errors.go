package service

import "errors"

var (
	// ErrSessionNotFound maps to a 404; the caller may not retry with the
	// same id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionNotFound covers both a bad question id and a deleted one.
	ErrQuestionNotFound = errors.New("question not found")
	ErrResultNotFound   = errors.New("result not found")
	// ErrSessionComplete rejects interaction with a terminal session.
	ErrSessionComplete = errors.New("session already completed")
	// ErrNoPendingQuestion means an answer arrived without an outstanding
	// question.
	ErrNoPendingQuestion = errors.New("no question pending for this session")
	// ErrQuestionMismatch means the submitted question id is not the
	// pending one; replays of already-answered questions land here so they
	// never double-count.
	ErrQuestionMismatch = errors.New("submitted question is not the pending question")
	// ErrQuestionsExhausted is a terminal signal, not a failure: the bank
	// has no unseen question left and the session finalizes.
	ErrQuestionsExhausted = errors.New("question bank exhausted")
	ErrInvalidTestType    = errors.New("test type must be practice or official")
)
