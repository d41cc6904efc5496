package ledger

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	apperrors "github.com/tokenward/tokenward/internal/errors"
)

// ownerOfSelector is the 4-byte function selector for ERC-721 ownerOf(uint256).
var ownerOfSelector = crypto.Keccak256([]byte("ownerOf(uint256)"))[:4]

// ContractCaller is the slice of the Ethereum client the ledger needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// EthereumLedger reads token holders from an ERC-721 contract over JSON-RPC.
// Every read is live and bounded by a timeout; there is no caching layer.
type EthereumLedger struct {
	client   ContractCaller
	contract common.Address
	timeout  time.Duration
}

// NewEthereumLedger creates a ledger backed by an ERC-721 contract.
func NewEthereumLedger(client ContractCaller, contract common.Address, timeout time.Duration) *EthereumLedger {
	return &EthereumLedger{
		client:   client,
		contract: contract,
		timeout:  timeout,
	}
}

// Dial connects to a JSON-RPC endpoint and returns a ledger over it.
func Dial(ctx context.Context, rpcURL string, contract common.Address, timeout time.Duration) (*EthereumLedger, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "failed to dial ledger rpc")
	}
	return NewEthereumLedger(client, contract, timeout), nil
}

// HolderOf calls ownerOf(tokenID) on the token contract. ERC-721 reverts for
// unknown tokens; that surfaces here as ErrNotFound so callers can tell an
// unknown token apart from a transport failure.
func (l *EthereumLedger) HolderOf(ctx context.Context, tokenID uint64) (common.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data := make([]byte, 0, 36)
	data = append(data, ownerOfSelector...)
	data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(tokenID).Bytes(), 32)...)

	out, err := l.client.CallContract(ctx, ethereum.CallMsg{To: &l.contract, Data: data}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return common.Address{}, apperrors.Wrap(apperrors.ErrUnavailable, "ledger read timed out")
		}
		// ownerOf reverts with "invalid token ID" for unminted tokens.
		return common.Address{}, apperrors.Wrap(apperrors.ErrNotFound, "token not found on ledger")
	}
	if len(out) != 32 {
		return common.Address{}, apperrors.Wrap(apperrors.ErrUnavailable, "malformed ownerOf response")
	}

	return common.BytesToAddress(out[12:32]), nil
}
