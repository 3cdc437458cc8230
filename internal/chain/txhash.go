package chain

import (
	"encoding/json"
	"fmt"
)

type TransactionHashKind string

const (
	TransactionHashDeploy   TransactionHashKind = "Deploy"
	TransactionHashVersion1 TransactionHashKind = "Version1"
)

// TransactionHash names either a legacy deploy or a version-1 transaction.
// The zero value is invalid; values are comparable.
type TransactionHash struct {
	Kind   TransactionHashKind
	Digest Digest
}

func DeployHash(d Digest) TransactionHash {
	return TransactionHash{Kind: TransactionHashDeploy, Digest: d}
}

func TransactionV1Hash(d Digest) TransactionHash {
	return TransactionHash{Kind: TransactionHashVersion1, Digest: d}
}

func (h TransactionHash) String() string {
	switch h.Kind {
	case TransactionHashDeploy:
		return "deploy-" + h.Digest.Hex()
	default:
		return "transaction-v1-" + h.Digest.Hex()
	}
}

func (h TransactionHash) MarshalJSON() ([]byte, error) {
	switch h.Kind {
	case TransactionHashDeploy, TransactionHashVersion1:
		return json.Marshal(map[string]Digest{string(h.Kind): h.Digest})
	default:
		return nil, fmt.Errorf("unknown transaction hash kind %q", h.Kind)
	}
}

func (h *TransactionHash) UnmarshalJSON(data []byte) error {
	var raw map[string]Digest
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode transaction hash: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("transaction hash must have exactly one variant, got %d", len(raw))
	}
	for kind, digest := range raw {
		switch TransactionHashKind(kind) {
		case TransactionHashDeploy, TransactionHashVersion1:
			*h = TransactionHash{Kind: TransactionHashKind(kind), Digest: digest}
			return nil
		default:
			return fmt.Errorf("unknown transaction hash variant %q", kind)
		}
	}
	return nil
}
