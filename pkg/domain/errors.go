package domain

import "errors"

// ErrInvalidConfig is returned when a story config misses the protagonist
// name or the setting.
var ErrInvalidConfig = errors.New("story config needs a protagonist name and a setting")

// ErrSeedGeneration marks a failed opening generation. Fatal to the round:
// the session falls back to idle and the config is discarded.
var ErrSeedGeneration = errors.New("seed generation failed")

// ErrContinuation marks a failed next-segment generation. Fatal to the round
// only: the story stays at its last good segment.
var ErrContinuation = errors.New("continuation generation failed")

// ErrBusy is returned when a choice is submitted while a round is in flight.
var ErrBusy = errors.New("a generation round is already in flight")

// ErrNoStory is returned when an operation needs an active story.
var ErrNoStory = errors.New("no active story")

// ErrUnknownChoice is returned when the submitted choice does not belong to
// the current segment.
var ErrUnknownChoice = errors.New("choice does not belong to the current segment")

// ErrStoryConcluded is returned when choosing on a story whose last segment
// offers no choices.
var ErrStoryConcluded = errors.New("story has concluded")

// ErrConfirmRequired guards destructive resets of stories with segments.
var ErrConfirmRequired = errors.New("reset requires confirmation")

// ErrIdentityNotFound is returned when a history operation addresses an
// unknown username. Callers decide whether absence is fatal.
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUsernameTaken is returned by Register when the username exists.
var ErrUsernameTaken = errors.New("username already taken")

// ErrInvalidCredentials is returned by Authenticate on any mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrStoryNotFound is returned when a saved story ID is not in the history.
var ErrStoryNotFound = errors.New("saved story not found")
