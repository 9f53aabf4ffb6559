package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when the question backend cannot be reached.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrEmptyQuestionPool is returned when the fetch succeeded but no active questions exist.
	ErrEmptyQuestionPool = errors.New("no active questions available")
	// ErrInvalidPlayerName rejects a session start with a blank player name.
	ErrInvalidPlayerName = errors.New("player name must not be empty")
	// ErrAnswerOutOfRange rejects an option index outside the question's options.
	ErrAnswerOutOfRange = errors.New("answer index out of range")
	// ErrSessionNotFound is returned when a session ID is unknown or expired.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionCompleted is returned for actions on a finished session.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrNotAwaitingAnswer is returned when a submission arrives outside AwaitingAnswer.
	ErrNotAwaitingAnswer = errors.New("no question awaiting an answer")
	// ErrNothingToAdvance is returned when advance is called outside ShowingFeedback.
	ErrNothingToAdvance = errors.New("no resolved question to advance from")
	// ErrQuestionMalformed indicates a stored question failed boundary validation.
	ErrQuestionMalformed = errors.New("malformed question record")
	// ErrQuestionNotFound indicates a question ID is unknown to the store.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidCredentials is returned on a failed admin login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
