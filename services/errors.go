package services

import "errors"

var (
	ErrUnknownReferrer      = errors.New("unknown referrer code")
	ErrInvalidTreeOperation = errors.New("invalid tree operation")
	ErrCorruptTree          = errors.New("corrupt referral tree")
	ErrDuplicateOrder       = errors.New("order already processed")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidConfig        = errors.New("invalid commission config")
	ErrAlreadyProcessed     = errors.New("already processed")
)
