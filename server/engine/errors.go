package engine

import "errors"

// Validation errors: the request is rejected and nothing is mutated.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInsufficientChips  = errors.New("insufficient chips")
	ErrBetTooSmall        = errors.New("bet does not cover the call")
	ErrInvalidAction      = errors.New("invalid action")
	ErrGameLocked         = errors.New("game already started")
	ErrGameNotLocked      = errors.New("game has not started")
	ErrTableFull          = errors.New("table is full")
	ErrAlreadySeated      = errors.New("player already seated")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrHandOver           = errors.New("hand is over")
	ErrNothingToDeal      = errors.New("nothing to deal")
	ErrNoTimer            = errors.New("no timer armed")
	ErrTimerNotYours      = errors.New("timer belongs to another player")
	ErrTimerAlreadyPaused = errors.New("timer already paused")
	ErrTimerNotPaused     = errors.New("timer is not paused")
)

var validationErrs = []error{
	ErrGameNotFound, ErrPlayerNotFound, ErrNotYourTurn, ErrInsufficientChips,
	ErrBetTooSmall, ErrInvalidAction, ErrGameLocked, ErrGameNotLocked,
	ErrTableFull, ErrAlreadySeated, ErrNotEnoughPlayers, ErrHandOver,
	ErrNothingToDeal, ErrNoTimer, ErrTimerNotYours, ErrTimerAlreadyPaused,
	ErrTimerNotPaused,
}

// IsValidation reports whether err is a caller mistake that is safe to retry
// after correcting the input.
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
