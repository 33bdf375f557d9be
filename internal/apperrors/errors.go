package apperrors

import (
	"errors"
)

var (
	ErrResellerAlreadyExists = errors.New("reseller already exists")
	ErrResellerNotFound      = errors.New("reseller not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletSuspended = errors.New("wallet is suspended")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrValidation        = errors.New("validation failed")

	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidState        = errors.New("invalid state transition")

	ErrRechargeNotFound         = errors.New("recharge not found")
	ErrRechargeExpired          = errors.New("recharge is expired")
	ErrRechargeAlreadyConfirmed = errors.New("recharge already confirmed")
)
