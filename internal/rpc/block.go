package rpc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

// MintLane holds native transfers in a version-2 block body.
const MintLane = "0"

// BlockIdentifier selects a block by hash or height. The zero value means the latest block.
type BlockIdentifier struct {
	Hash   *chain.Digest
	Height *uint64
}

// ParseBlockIdentifier accepts a 64-char hex block hash or a decimal height; empty
// input selects the latest block.
func ParseBlockIdentifier(raw string) (BlockIdentifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return BlockIdentifier{}, nil
	}
	if len(raw) == chain.DigestLength*2 {
		d, err := chain.ParseDigest(raw)
		if err != nil {
			return BlockIdentifier{}, clierr.Wrap(clierr.CodeInvalidArgument, "invalid block hash", err)
		}
		return BlockIdentifier{Hash: &d}, nil
	}
	height, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return BlockIdentifier{}, clierr.Newf(clierr.CodeInvalidArgument, "block identifier %q is neither a block hash nor a height", raw)
	}
	return BlockIdentifier{Height: &height}, nil
}

func (b BlockIdentifier) IsLatest() bool { return b.Hash == nil && b.Height == nil }

func (b BlockIdentifier) MarshalJSON() ([]byte, error) {
	switch {
	case b.Hash != nil:
		return json.Marshal(map[string]chain.Digest{"Hash": *b.Hash})
	case b.Height != nil:
		return json.Marshal(map[string]uint64{"Height": *b.Height})
	default:
		return []byte("null"), nil
	}
}

// GetBlockResult is the result of chain_get_block. BlockWithSignatures is nil when
// the node does not have the requested block.
type GetBlockResult struct {
	APIVersion          string               `json:"api_version"`
	BlockWithSignatures *BlockWithSignatures `json:"block_with_signatures"`
}

type BlockWithSignatures struct {
	Block  Block           `json:"block"`
	Proofs json.RawMessage `json:"proofs,omitempty"`
}

// Block is either a legacy (Version1) or current (Version2) block. Exactly one is set.
type Block struct {
	V1 *BlockV1
	V2 *BlockV2
}

type BlockV1 struct {
	Hash   chain.Digest    `json:"hash"`
	Header json.RawMessage `json:"header"`
	Body   json.RawMessage `json:"body"`
}

type BlockV2 struct {
	Hash   chain.Digest    `json:"hash"`
	Header json.RawMessage `json:"header"`
	Body   BlockV2Body     `json:"body"`
}

type BlockV2Body struct {
	Transactions       map[string][]chain.TransactionHash `json:"transactions"`
	RewardedSignatures json.RawMessage                    `json:"rewarded_signatures,omitempty"`
}

// AllTransactions lists every transaction in lane order, keeping each lane's order.
func (b *BlockV2) AllTransactions() []chain.TransactionHash {
	lanes := make([]string, 0, len(b.Body.Transactions))
	for lane := range b.Body.Transactions {
		lanes = append(lanes, lane)
	}
	sort.Slice(lanes, func(i, j int) bool { return laneLess(lanes[i], lanes[j]) })
	out := make([]chain.TransactionHash, 0)
	for _, lane := range lanes {
		out = append(out, b.Body.Transactions[lane]...)
	}
	return out
}

// Mint lists the native transfers of the block.
func (b *BlockV2) Mint() []chain.TransactionHash {
	return append(make([]chain.TransactionHash, 0), b.Body.Transactions[MintLane]...)
}

func laneLess(a, b string) bool {
	x, errX := strconv.ParseUint(a, 10, 8)
	y, errY := strconv.ParseUint(b, 10, 8)
	if errX == nil && errY == nil {
		return x < y
	}
	return a < b
}

func (b Block) MarshalJSON() ([]byte, error) {
	switch {
	case b.V2 != nil:
		return json.Marshal(map[string]*BlockV2{"Version2": b.V2})
	case b.V1 != nil:
		return json.Marshal(map[string]*BlockV1{"Version1": b.V1})
	default:
		return nil, fmt.Errorf("block has no version")
	}
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode block: %w", err)
	}
	if body, ok := raw["Version2"]; ok {
		var v2 BlockV2
		if err := json.Unmarshal(body, &v2); err != nil {
			return fmt.Errorf("decode version 2 block: %w", err)
		}
		*b = Block{V2: &v2}
		return nil
	}
	if body, ok := raw["Version1"]; ok {
		var v1 BlockV1
		if err := json.Unmarshal(body, &v1); err != nil {
			return fmt.Errorf("decode version 1 block: %w", err)
		}
		*b = Block{V1: &v1}
		return nil
	}
	return fmt.Errorf("unknown block version in %s", abbreviateKeys(raw))
}

func abbreviateKeys(raw map[string]json.RawMessage) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "{" + strings.Join(keys, ",") + "}"
}
