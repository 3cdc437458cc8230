package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ggonzalez94/casper-cli/internal/cache"
	"github.com/ggonzalez94/casper-cli/internal/model"
	"github.com/ggonzalez94/casper-cli/internal/results"
	"github.com/ggonzalez94/casper-cli/internal/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (s *runtimeState) newListTransactionsCommand() *cobra.Command {
	var (
		node  nodeFlags
		block string
	)
	cmd := &cobra.Command{
		Use:   "list-transactions",
		Short: "List the transaction and transfer hashes of a block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, result, status, err := s.fetchBlock(cmd.Context(), node, block)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), results.ListTransactions(*result), status)
		},
	}
	addNodeFlags(cmd, &node)
	cmd.Flags().StringVarP(&block, "block-identifier", "b", "", "Block hash or height (default: latest block)")
	return cmd
}

func (s *runtimeState) newGetBlockCommand() *cobra.Command {
	var (
		node  nodeFlags
		block string
	)
	cmd := &cobra.Command{
		Use:   "get-block",
		Short: "Fetch a block from the node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, _, status, err := s.fetchBlock(cmd.Context(), node, block)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), resp, status)
		},
	}
	addNodeFlags(cmd, &node)
	cmd.Flags().StringVarP(&block, "block-identifier", "b", "", "Block hash or height (default: latest block)")
	return cmd
}

// fetchBlock runs chain_get_block. Blocks requested by hash never change, so found
// ones are cached per node.
func (s *runtimeState) fetchBlock(ctx context.Context, node nodeFlags, rawBlock string) (*rpc.Response, *rpc.GetBlockResult, model.CacheStatus, error) {
	blockID, err := rpc.ParseBlockIdentifier(rawBlock)
	if err != nil {
		return nil, nil, model.CacheStatus{}, err
	}
	client, addr := s.nodeClient(node)
	id := rpc.ParseID(node.id)
	s.lastNode = &model.NodeStatus{Address: addr, Method: rpc.MethodGetBlock, RPCID: id.String()}

	var (
		store *cache.Store
		key   string
	)
	if blockID.Hash != nil {
		store = s.openCache()
		key = cache.Key(addr, rpc.MethodGetBlock, blockID.Hash.Hex())
	}
	if store != nil {
		hit, err := store.Get(ctx, key)
		if err != nil {
			s.log.Warn("cache read failed", zap.Error(err))
		} else if hit.Hit {
			var result rpc.GetBlockResult
			if err := json.Unmarshal(hit.Value, &result); err == nil {
				rawID, _ := id.MarshalJSON()
				resp := &rpc.Response{JSONRPC: "2.0", ID: rawID, Result: hit.Value}
				return resp, &result, model.CacheStatus{Status: "hit", AgeMS: hit.Age.Milliseconds()}, nil
			}
		}
	}

	start := time.Now()
	resp, result, err := client.GetBlock(ctx, id, blockID)
	s.lastNode.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		return nil, nil, model.CacheStatus{}, err
	}
	if store == nil {
		return resp, result, cacheMetaBypass(), nil
	}
	if result.BlockWithSignatures != nil {
		if err := store.Set(ctx, key, resp.Result, cache.BlockTTL); err != nil {
			s.log.Warn("cache write failed", zap.Error(err))
		}
	}
	return resp, result, cacheMetaMiss(), nil
}

func (s *runtimeState) newGetBalanceCommand() *cobra.Command {
	var (
		node          nodeFlags
		stateRootHash string
		purseURef     string
	)
	cmd := &cobra.Command{
		Use:   "get-balance",
		Short: "Read the balance of a purse under a state root hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, addr := s.nodeClient(node)
			id := rpc.ParseID(node.id)
			s.lastNode = &model.NodeStatus{Address: addr, Method: rpc.MethodGetBalance, RPCID: id.String()}
			start := time.Now()
			resp, err := client.GetBalance(cmd.Context(), id, stateRootHash, purseURef)
			s.lastNode.LatencyMS = time.Since(start).Milliseconds()
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), resp, cacheMetaBypass())
		},
	}
	addNodeFlags(cmd, &node)
	cmd.Flags().StringVarP(&stateRootHash, "state-root-hash", "s", "", "Hex state root hash")
	cmd.Flags().StringVarP(&purseURef, "purse-uref", "p", "", "Purse URef, e.g. uref-<hex>-007")
	_ = cmd.MarkFlagRequired("state-root-hash")
	_ = cmd.MarkFlagRequired("purse-uref")
	return cmd
}
