package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// changeControllerSelector is the 4-byte selector for changeController(address).
var changeControllerSelector = crypto.Keccak256([]byte("changeController(address)"))[:4]

// Instruction is a single call an executable account can run: a target
// address, a value to attach, and ABI-encoded calldata.
type Instruction struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// IsSelfDirected reports whether the instruction targets the account itself.
// Only self-directed instructions may travel the delegate path.
func (i Instruction) IsSelfDirected(account common.Address) bool {
	return i.Target == account
}

// ControllerChangeInstruction builds the self-directed instruction that
// changes the controller of account to newController.
func ControllerChangeInstruction(account, newController common.Address) Instruction {
	data := make([]byte, 0, 36)
	data = append(data, changeControllerSelector...)
	data = append(data, common.LeftPadBytes(newController.Bytes(), 32)...)
	return Instruction{
		Target: account,
		Value:  new(big.Int),
		Data:   data,
	}
}

// ParseControllerChange decodes a controller-change instruction payload.
// Returns false if data is not a well-formed changeController call.
func ParseControllerChange(data []byte) (common.Address, bool) {
	if len(data) != 36 {
		return common.Address{}, false
	}
	for i := range changeControllerSelector {
		if data[i] != changeControllerSelector[i] {
			return common.Address{}, false
		}
	}
	// The argument is a 32-byte word with the address in the low 20 bytes.
	for _, b := range data[4:16] {
		if b != 0 {
			return common.Address{}, false
		}
	}
	return common.BytesToAddress(data[16:36]), true
}
