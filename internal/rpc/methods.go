package rpc

import (
	"context"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/txn"
)

type transactionParams struct {
	Transaction map[string]*txn.Transaction `json:"transaction"`
}

type deployParams struct {
	Deploy *txn.Deploy `json:"deploy"`
}

func wrapTransaction(tx *txn.Transaction) transactionParams {
	return transactionParams{Transaction: map[string]*txn.Transaction{"Version1": tx}}
}

// PutTransaction submits tx for execution.
func (c *Client) PutTransaction(ctx context.Context, id ID, tx *txn.Transaction) (*Response, error) {
	return c.Call(ctx, id, MethodPutTransaction, wrapTransaction(tx))
}

// SpeculativeExecTransaction executes tx without committing its effects.
func (c *Client) SpeculativeExecTransaction(ctx context.Context, id ID, tx *txn.Transaction) (*Response, error) {
	return c.Call(ctx, id, MethodSpeculativeExecTxn, wrapTransaction(tx))
}

func (c *Client) PutDeploy(ctx context.Context, id ID, d *txn.Deploy) (*Response, error) {
	return c.Call(ctx, id, MethodPutDeploy, deployParams{Deploy: d})
}

func (c *Client) SpeculativeExecDeploy(ctx context.Context, id ID, d *txn.Deploy) (*Response, error) {
	return c.Call(ctx, id, MethodSpeculativeExec, deployParams{Deploy: d})
}

type getBlockParams struct {
	BlockIdentifier BlockIdentifier `json:"block_identifier"`
}

// GetBlock fetches a block and decodes the result.
func (c *Client) GetBlock(ctx context.Context, id ID, block BlockIdentifier) (*Response, *GetBlockResult, error) {
	var params any
	if !block.IsLatest() {
		params = getBlockParams{BlockIdentifier: block}
	}
	resp, err := c.Call(ctx, id, MethodGetBlock, params)
	if err != nil {
		return nil, nil, err
	}
	var result GetBlockResult
	if err := resp.Decode(&result); err != nil {
		return nil, nil, err
	}
	return resp, &result, nil
}

type getBalanceParams struct {
	StateRootHash chain.Digest `json:"state_root_hash"`
	PurseURef     string       `json:"purse_uref"`
}

// GetBalance reads the balance of purseURef under stateRootHash.
func (c *Client) GetBalance(ctx context.Context, id ID, stateRootHash, purseURef string) (*Response, error) {
	root, err := chain.ParseDigest(stateRootHash)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid state root hash", err)
	}
	if err := chain.ValidateURef(purseURef); err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid purse uref", err)
	}
	return c.Call(ctx, id, MethodGetBalance, getBalanceParams{StateRootHash: root, PurseURef: purseURef})
}
