package models

import "time"

// TransactionRecord is a confirmed on-chain payment. Amount is in nanoton,
// kept as a string so it never passes through a float.
type TransactionRecord struct {
	Hash        string    `bson:"hash" json:"hash"`
	FromAddress string    `bson:"fromAddress" json:"fromAddress"`
	ToAddress   string    `bson:"toAddress" json:"toAddress"`
	Amount      string    `bson:"amount" json:"amount"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	Confirmed   bool      `bson:"confirmed" json:"confirmed"`
}

// TransactionInfo is the wire shape of a verified transaction.
type TransactionInfo struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"` // nanoton
	Timestamp int64  `json:"timestamp"`
	Success   bool   `json:"success"`
}

// Record converts the wire shape into the persisted record.
func (t TransactionInfo) Record() TransactionRecord {
	return TransactionRecord{
		Hash:        t.Hash,
		FromAddress: t.From,
		ToAddress:   t.To,
		Amount:      t.Value,
		Timestamp:   time.Unix(t.Timestamp, 0).UTC(),
		Confirmed:   t.Success,
	}
}

// RejectionReason explains why a purchase transaction was not accepted.
type RejectionReason string

const (
	ReasonMalformedHash     RejectionReason = "MALFORMED_HASH"
	ReasonAlreadyUsed       RejectionReason = "ALREADY_USED"
	ReasonAmountMismatch    RejectionReason = "AMOUNT_MISMATCH"
	ReasonWrongDestination  RejectionReason = "WRONG_DESTINATION"
	ReasonNotFound          RejectionReason = "NOT_FOUND"
	ReasonChainQueryFailed  RejectionReason = "CHAIN_QUERY_FAILED"
	ReasonTransactionFailed RejectionReason = "TRANSACTION_FAILED"
)

// Retryable reports whether the caller may retry the same hash later.
func (r RejectionReason) Retryable() bool {
	return r == ReasonChainQueryFailed || r == ReasonNotFound
}

// VerificationResult is the verifier outcome. Business rejections are values,
// never errors.
type VerificationResult struct {
	Valid       bool             `json:"valid"`
	Reason      RejectionReason  `json:"reason,omitempty"`
	Error       string           `json:"error,omitempty"`
	Transaction *TransactionInfo `json:"transaction,omitempty"`
}

// VerifyRequest is the body of POST /api/tickets/verify.
type VerifyRequest struct {
	TransactionHash string `json:"txHash" binding:"required"`
	ExpectedAmount  string `json:"expectedAmount" binding:"required"`
}
