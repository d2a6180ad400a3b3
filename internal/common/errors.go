// Package common defines shared constants and sentinel errors used across
// the waterlog core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrStorageDecode marks a corrupt or undecodable local replica blob.
	// Callers treat it as a diagnostic: they log it and carry on with an
	// empty replica instead of failing.
	ErrStorageDecode = errors.New("stored replica is not decodable")

	// ErrPayloadDecode marks a malformed inbound sync payload. The payload
	// is dropped; it never reaches the local replica.
	ErrPayloadDecode = errors.New("sync payload is not decodable")

	// ErrPeerUnreachable is returned by best-effort sends while the peer
	// is offline. The reliable channel is expected to redeliver later.
	ErrPeerUnreachable = errors.New("peer unreachable")

	// Validation errors.
	ErrUnknownSize = errors.New("unknown drink size")

	// Pairing / handshake errors.
	ErrInvalidToken = errors.New("invalid pairing token")
)
