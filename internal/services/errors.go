package services

import "errors"

var (
	// ErrInvalidWallet is returned when a wallet address does not parse as a TON address.
	ErrInvalidWallet = errors.New("invalid wallet address")
	// ErrInvalidTicketCount is returned when a purchase asks for too few or too many tickets.
	ErrInvalidTicketCount = errors.New("invalid ticket count")
	// ErrInvalidNumbers is returned when picked or winning numbers break the game rules.
	ErrInvalidNumbers = errors.New("invalid ticket numbers")
	// ErrNoOpenDraw is returned when tickets are bought while no draw is selling.
	ErrNoOpenDraw = errors.New("no draw is open for ticket sales")
	// ErrInvalidDrawState is returned when a draw transition does not apply to its status.
	ErrInvalidDrawState = errors.New("draw is not in a valid state for this operation")
	// ErrInvalidDrawSchedule is returned when a draw would close in the past.
	ErrInvalidDrawSchedule = errors.New("draw close time must be in the future")
	// ErrInvalidCredentials is returned by Login for any unknown email or bad password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAmount is returned when an expected payment amount is negative.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidTxHash is returned when a transaction hash is neither hex nor base64 of 32 bytes.
	ErrInvalidTxHash = errors.New("invalid transaction hash")
	// ErrSettlementPending is returned while purchases reserved against a closed
	// draw have not all been stored yet.
	ErrSettlementPending = errors.New("draw has purchases still being recorded, retry shortly")
)
