package txn

import (
	"encoding/json"

	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

type DeployHeader struct {
	Account      chain.PublicKey `json:"account"`
	Timestamp    chain.Timestamp `json:"timestamp"`
	TTL          chain.TimeDiff  `json:"ttl"`
	GasPrice     uint64          `json:"gas_price"`
	BodyHash     chain.Digest    `json:"body_hash"`
	Dependencies []chain.Digest  `json:"dependencies"`
	ChainName    string          `json:"chain_name"`
}

func (h DeployHeader) Encode(e *chain.Encoder) {
	h.Account.Encode(e)
	e.PutU64(uint64(h.Timestamp))
	e.PutU64(uint64(h.TTL))
	e.PutU64(h.GasPrice)
	e.PutRaw(h.BodyHash[:])
	e.PutU32(uint32(len(h.Dependencies)))
	for _, d := range h.Dependencies {
		e.PutRaw(d[:])
	}
	e.PutString(h.ChainName)
}

// Deploy is the legacy transaction format.
type Deploy struct {
	Hash      chain.Digest              `json:"hash"`
	Header    DeployHeader              `json:"header"`
	Payment   args.ExecutableDeployItem `json:"payment"`
	Session   args.ExecutableDeployItem `json:"session"`
	Approvals []Approval                `json:"approvals"`
}

// NewDeploy fills in the body hash and deploy hash and returns an unsigned deploy.
func NewDeploy(header DeployHeader, payment, session args.ExecutableDeployItem) *Deploy {
	if header.Dependencies == nil {
		header.Dependencies = []chain.Digest{}
	}
	header.BodyHash = bodyHash(payment, session)
	return &Deploy{
		Hash:      header.hash(),
		Header:    header,
		Payment:   payment,
		Session:   session,
		Approvals: []Approval{},
	}
}

func bodyHash(payment, session args.ExecutableDeployItem) chain.Digest {
	e := chain.NewEncoder()
	payment.Encode(e)
	session.Encode(e)
	return chain.Blake2b256(e.Bytes())
}

func (h DeployHeader) hash() chain.Digest {
	e := chain.NewEncoder()
	h.Encode(e)
	return chain.Blake2b256(e.Bytes())
}

func (d *Deploy) Kind() Kind { return KindDeploy }

func (d *Deploy) TransactionHash() chain.TransactionHash {
	return chain.DeployHash(d.Hash)
}

func (d *Deploy) Validity() (chain.Timestamp, chain.Timestamp) {
	return d.Header.Timestamp, d.Header.Timestamp.Add(d.Header.TTL)
}

func (d *Deploy) ChainName() string { return d.Header.ChainName }

func (d *Deploy) RequiresSignature() bool { return len(d.Approvals) == 0 }

func (d *Deploy) Sign(s Signer) error {
	approvals, err := addApproval(d.Approvals, d.Hash, s)
	if err != nil {
		return clierr.Wrap(clierr.CodeKeyLoad, "sign deploy", err)
	}
	d.Approvals = approvals
	return nil
}

func (d *Deploy) Verify() error {
	if got := bodyHash(d.Payment, d.Session); got != d.Header.BodyHash {
		return clierr.Newf(clierr.CodeInvalidArgument, "deploy body hash %s does not match its payment and session (expected %s)", d.Header.BodyHash, got)
	}
	if got := d.Header.hash(); got != d.Hash {
		return clierr.Newf(clierr.CodeInvalidArgument, "deploy hash %s does not match its header (expected %s)", d.Hash, got)
	}
	if err := verifyApprovals(d.Approvals, d.Hash); err != nil {
		return clierr.Wrap(clierr.CodeInvalidArgument, "verify deploy approvals", err)
	}
	return nil
}

// ParseDeploy decodes a deploy written by make-deploy and verifies it.
func ParseDeploy(data []byte) (*Deploy, error) {
	var d Deploy
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "decode deploy", err)
	}
	if d.Approvals == nil {
		d.Approvals = []Approval{}
	}
	if d.Header.Dependencies == nil {
		d.Header.Dependencies = []chain.Digest{}
	}
	if err := d.Verify(); err != nil {
		return nil, err
	}
	return &d, nil
}
