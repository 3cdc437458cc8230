package txn

import (
	"fmt"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	"github.com/ggonzalez94/casper-cli/internal/keys"
)

type Kind string

const (
	KindTransaction Kind = "transaction"
	KindDeploy      Kind = "deploy"
)

// Signer produces approvals. keys.SecretKey satisfies it.
type Signer interface {
	PublicKey() chain.PublicKey
	Sign(msg []byte) (chain.Signature, error)
}

// Artifact is a built transaction or deploy ready to be written or submitted.
type Artifact interface {
	Kind() Kind
	TransactionHash() chain.TransactionHash
	Validity() (start, end chain.Timestamp)
	ChainName() string
	RequiresSignature() bool
	Sign(s Signer) error
	Verify() error
}

// Approval is a signature over the artifact hash by one signer.
type Approval struct {
	Signer    chain.PublicKey `json:"signer"`
	Signature chain.Signature `json:"signature"`
}

func addApproval(approvals []Approval, hash chain.Digest, s Signer) ([]Approval, error) {
	sig, err := s.Sign(hash[:])
	if err != nil {
		return approvals, fmt.Errorf("sign %s: %w", hash, err)
	}
	signer := s.PublicKey()
	for i, a := range approvals {
		if a.Signer.Equal(signer) {
			approvals[i].Signature = sig
			return approvals, nil
		}
	}
	return append(approvals, Approval{Signer: signer, Signature: sig}), nil
}

func verifyApprovals(approvals []Approval, hash chain.Digest) error {
	for _, a := range approvals {
		if !keys.Verify(a.Signer, hash[:], a.Signature) {
			return fmt.Errorf("approval by %s does not verify against %s", a.Signer, hash)
		}
	}
	return nil
}
