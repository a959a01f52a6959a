package util

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// ProgramDigest identifies program text in logs by its Keccak-256 hash.
func ProgramDigest(program []byte) string {
	return hex.EncodeToString(crypto.Keccak256(program))
}

// ShortDigest is the first eight hex digits of ProgramDigest.
func ShortDigest(program []byte) string {
	return ProgramDigest(program)[:8]
}
