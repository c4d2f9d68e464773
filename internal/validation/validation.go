package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var txHashRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// ValidateAddress validates an Ethereum address format.
// Malformed addresses are rejected here, at the command boundary,
// and never reach the monitor or the calculator.
func ValidateAddress(address string) error {
	if address == "" {
		return errors.New("address cannot be empty")
	}
	if !common.IsHexAddress(address) {
		return errors.New("invalid address format")
	}
	return nil
}

// Normalize returns the canonical lowercase form used for storage and
// comparisons.
func Normalize(address string) string {
	return strings.ToLower(address)
}

// ValidateTxHash validates a transaction hash format
func ValidateTxHash(txHash string) error {
	if txHash == "" {
		return errors.New("transaction hash cannot be empty")
	}
	if !txHashRegex.MatchString(txHash) {
		return errors.New("invalid transaction hash format")
	}
	return nil
}
