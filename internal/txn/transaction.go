package txn

import (
	"encoding/json"
	"fmt"

	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

type Payload struct {
	InitiatorAddr chain.InitiatorAddr `json:"initiator_addr"`
	Timestamp     chain.Timestamp     `json:"timestamp"`
	TTL           chain.TimeDiff      `json:"ttl"`
	ChainName     string              `json:"chain_name"`
	PricingMode   PricingMode         `json:"pricing_mode"`
	Fields        args.Body           `json:"fields"`
}

// Encode writes the payload fields in declaration order. This is not the node's
// calltable layout, so hashes agree with this tool only, not with a 2.x node.
func (p Payload) Encode(e *chain.Encoder) {
	p.InitiatorAddr.Encode(e)
	e.PutU64(uint64(p.Timestamp))
	e.PutU64(uint64(p.TTL))
	e.PutString(p.ChainName)
	p.PricingMode.Encode(e)
	p.Fields.Encode(e)
}

// Transaction is a version-1 transaction.
type Transaction struct {
	Hash      chain.Digest `json:"hash"`
	Payload   Payload      `json:"payload"`
	Approvals []Approval   `json:"approvals"`
}

// NewTransaction computes the hash of payload and returns an unsigned transaction.
func NewTransaction(payload Payload) *Transaction {
	return &Transaction{Hash: payload.hash(), Payload: payload, Approvals: []Approval{}}
}

func (p Payload) hash() chain.Digest {
	e := chain.NewEncoder()
	p.Encode(e)
	return chain.Blake2b256(e.Bytes())
}

func (t *Transaction) Kind() Kind { return KindTransaction }

func (t *Transaction) TransactionHash() chain.TransactionHash {
	return chain.TransactionV1Hash(t.Hash)
}

func (t *Transaction) Validity() (chain.Timestamp, chain.Timestamp) {
	return t.Payload.Timestamp, t.Payload.Timestamp.Add(t.Payload.TTL)
}

func (t *Transaction) ChainName() string { return t.Payload.ChainName }

func (t *Transaction) RequiresSignature() bool { return len(t.Approvals) == 0 }

func (t *Transaction) Sign(s Signer) error {
	approvals, err := addApproval(t.Approvals, t.Hash, s)
	if err != nil {
		return clierr.Wrap(clierr.CodeKeyLoad, "sign transaction", err)
	}
	t.Approvals = approvals
	return nil
}

// Verify checks the stored hash against the payload and every approval against the hash.
func (t *Transaction) Verify() error {
	if got := t.Payload.hash(); got != t.Hash {
		return clierr.Newf(clierr.CodeInvalidArgument, "transaction hash %s does not match its payload (expected %s)", t.Hash, got)
	}
	if err := verifyApprovals(t.Approvals, t.Hash); err != nil {
		return clierr.Wrap(clierr.CodeInvalidArgument, "verify transaction approvals", err)
	}
	return nil
}

// ParseTransaction decodes a transaction written by make-transaction and verifies it.
func ParseTransaction(data []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "decode transaction", err)
	}
	if t.Approvals == nil {
		t.Approvals = []Approval{}
	}
	if err := t.Verify(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Transaction) String() string {
	return fmt.Sprintf("transaction %s", t.Hash)
}
