package domain

import "strings"

// BuildTransactionID derives a stable transaction id from a client request id.
// The same user intent retried with the same request id maps to the same transaction.
func BuildTransactionID(kind TransactionKind, actorID, requestID string) string {
	return strings.ToLower(string(kind)) + ":" + actorID + ":" + requestID
}

// BuildClaimKey is the key under which an in-flight transfer holds its claim.
func BuildClaimKey(transactionID string) string {
	return "claim:" + transactionID
}

// BuildReference builds the domain correlation key stored on a transaction.
func BuildReference(prefix, id string) string {
	return prefix + "_" + id
}

// BuildResultKey is the cache key holding a completed transfer's result.
func BuildResultKey(transactionID string) string {
	return "result:" + transactionID
}
