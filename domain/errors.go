package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("Invalid address")
	ErrInvalidSignature    = errors.New("Invalid signature")

	// ledger validation errors, surfaced before any state mutates
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDepositToken  = errors.New("invalid deposit token")
	ErrZeroAddress          = errors.New("zero address")
	ErrInsufficientBalance  = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrInsufficientStake    = errors.New("unstake amount exceeds staked amount")

	// authorization
	ErrForbidden = errors.New("forbidden")

	// invariant protection
	ErrAlreadyInitialized   = errors.New("already initialized")
	ErrNotInitialized       = errors.New("not initialized")
	ErrMaxVestableExceeded  = errors.New("max vestable amount exceeded")
	ErrTransferNotSignalled = errors.New("transfer not signalled")
	ErrSenderHasVested      = errors.New("sender has vested tokens")
	ErrInvalidReceiver      = errors.New("invalid receiver")

	// funding: a reservoir short of the computed distribution freezes the
	// operation instead of short-paying
	ErrInsufficientReserves = errors.New("insufficient reward reserves")

	ErrCooldownNotElapsed = errors.New("cooldown duration not yet passed")
)
