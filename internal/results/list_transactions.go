package results

import (
	"github.com/ggonzalez94/casper-cli/internal/chain"
	"github.com/ggonzalez94/casper-cli/internal/rpc"
)

// ListTransactionsResult is the stable output of list-transactions. Both hash lists
// are nil when the node did not have the block and empty for legacy blocks.
type ListTransactionsResult struct {
	APIVersion        string                   `json:"api_version"`
	TransactionHashes *[]chain.TransactionHash `json:"transaction_hashes"`
	TransferHashes    *[]chain.TransactionHash `json:"transfer_hashes"`
}

// ListTransactions normalizes a chain_get_block result. It never fails.
func ListTransactions(result rpc.GetBlockResult) ListTransactionsResult {
	out := ListTransactionsResult{APIVersion: result.APIVersion}
	if result.BlockWithSignatures == nil {
		return out
	}
	block := result.BlockWithSignatures.Block
	var all, transfers []chain.TransactionHash
	switch {
	case block.V2 != nil:
		all = block.V2.AllTransactions()
		transfers = block.V2.Mint()
	default:
		all = []chain.TransactionHash{}
		transfers = []chain.TransactionHash{}
	}
	out.TransactionHashes = &all
	out.TransferHashes = &transfers
	return out
}
