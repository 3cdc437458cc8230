package args

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

type DeployItemKind string

const (
	ItemModuleBytes                   DeployItemKind = "ModuleBytes"
	ItemStoredContractByHash          DeployItemKind = "StoredContractByHash"
	ItemStoredContractByName          DeployItemKind = "StoredContractByName"
	ItemStoredVersionedContractByHash DeployItemKind = "StoredVersionedContractByHash"
	ItemStoredVersionedContractByName DeployItemKind = "StoredVersionedContractByName"
	ItemTransfer                      DeployItemKind = "Transfer"
)

var deployItemTags = map[DeployItemKind]byte{
	ItemModuleBytes:                   0,
	ItemStoredContractByHash:          1,
	ItemStoredContractByName:          2,
	ItemStoredVersionedContractByHash: 3,
	ItemStoredVersionedContractByName: 4,
	ItemTransfer:                      5,
}

// ExecutableDeployItem is the session or payment code of a legacy deploy.
type ExecutableDeployItem struct {
	Kind        DeployItemKind
	ModuleBytes []byte
	Hash        chain.Digest
	Name        string
	Version     *uint32
	EntryPoint  string
	Args        RuntimeArgs
}

// StandardPayment is the empty-module payment item carrying only an amount.
func StandardPayment(amount string) (ExecutableDeployItem, error) {
	value, err := parseMotes("payment amount", amount)
	if err != nil {
		return ExecutableDeployItem{}, err
	}
	return ExecutableDeployItem{Kind: ItemModuleBytes, ModuleBytes: []byte{}, Args: RuntimeArgs{}.With("amount", value)}, nil
}

func (i ExecutableDeployItem) Encode(e *chain.Encoder) {
	e.PutU8(deployItemTags[i.Kind])
	switch i.Kind {
	case ItemModuleBytes:
		e.PutBytes(i.ModuleBytes)
	case ItemStoredContractByHash:
		e.PutRaw(i.Hash[:])
		e.PutString(i.EntryPoint)
	case ItemStoredContractByName:
		e.PutString(i.Name)
		e.PutString(i.EntryPoint)
	case ItemStoredVersionedContractByHash:
		e.PutRaw(i.Hash[:])
		e.PutOption(i.Version != nil, func(e *chain.Encoder) { e.PutU32(*i.Version) })
		e.PutString(i.EntryPoint)
	case ItemStoredVersionedContractByName:
		e.PutString(i.Name)
		e.PutOption(i.Version != nil, func(e *chain.Encoder) { e.PutU32(*i.Version) })
		e.PutString(i.EntryPoint)
	}
	i.Args.Encode(e)
}

type deployItemJSON struct {
	ModuleBytes *string       `json:"module_bytes,omitempty"`
	Hash        *chain.Digest `json:"hash,omitempty"`
	Name        string        `json:"name,omitempty"`
	Version     *uint32       `json:"version,omitempty"`
	EntryPoint  string        `json:"entry_point,omitempty"`
	Args        RuntimeArgs   `json:"args"`
}

func (i ExecutableDeployItem) MarshalJSON() ([]byte, error) {
	if _, ok := deployItemTags[i.Kind]; !ok {
		return nil, fmt.Errorf("unknown deploy item kind %q", i.Kind)
	}
	body := deployItemJSON{Name: i.Name, Version: i.Version, EntryPoint: i.EntryPoint, Args: i.Args}
	if body.Args == nil {
		body.Args = RuntimeArgs{}
	}
	switch i.Kind {
	case ItemModuleBytes:
		module := hex.EncodeToString(i.ModuleBytes)
		body.ModuleBytes = &module
	case ItemStoredContractByHash, ItemStoredVersionedContractByHash:
		hash := i.Hash
		body.Hash = &hash
	}
	return json.Marshal(map[string]deployItemJSON{string(i.Kind): body})
}

func (i *ExecutableDeployItem) UnmarshalJSON(data []byte) error {
	var raw map[string]deployItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode deploy item: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("deploy item must have exactly one variant, got %d", len(raw))
	}
	for kind, body := range raw {
		if _, ok := deployItemTags[DeployItemKind(kind)]; !ok {
			return fmt.Errorf("unknown deploy item variant %q", kind)
		}
		out := ExecutableDeployItem{
			Kind:       DeployItemKind(kind),
			Name:       body.Name,
			Version:    body.Version,
			EntryPoint: body.EntryPoint,
			Args:       body.Args,
		}
		if body.Hash != nil {
			out.Hash = *body.Hash
		}
		if body.ModuleBytes != nil {
			module, err := hex.DecodeString(*body.ModuleBytes)
			if err != nil {
				return fmt.Errorf("decode module bytes: %w", err)
			}
			out.ModuleBytes = module
		}
		*i = out
	}
	return nil
}

// SessionParams selects exactly one session source for a deploy.
type SessionParams struct {
	Path        string
	Hash        string
	Name        string
	PackageHash string
	PackageName string
	Version     string
	EntryPoint  string
	Args        []string

	Transfer       bool
	TransferTarget string
	TransferAmount string
	TransferID     string
}

// PaymentParams selects standard payment by amount or custom payment code by path.
type PaymentParams struct {
	Amount string
	Path   string
	Args   []string
}

// BuildSession turns SessionParams into an executable item.
func BuildSession(p SessionParams) (ExecutableDeployItem, error) {
	sources := 0
	for _, set := range []bool{
		strings.TrimSpace(p.Path) != "",
		strings.TrimSpace(p.Hash) != "",
		strings.TrimSpace(p.Name) != "",
		strings.TrimSpace(p.PackageHash) != "",
		strings.TrimSpace(p.PackageName) != "",
		p.Transfer,
	} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return ExecutableDeployItem{}, clierr.New(clierr.CodeInvalidArgument, "exactly one of --session-path, --session-hash, --session-name, --session-package-hash, --session-package-name or --transfer is required")
	}

	runtimeArgs, err := ParseSimpleArgs(p.Args)
	if err != nil {
		return ExecutableDeployItem{}, err
	}
	if p.Transfer {
		transferArgs, err := TransferArgs(p.TransferTarget, p.TransferAmount, p.TransferID)
		if err != nil {
			return ExecutableDeployItem{}, err
		}
		return ExecutableDeployItem{Kind: ItemTransfer, Args: append(transferArgs, runtimeArgs...)}, nil
	}
	if strings.TrimSpace(p.Path) != "" {
		module, err := os.ReadFile(p.Path)
		if err != nil {
			return ExecutableDeployItem{}, clierr.Wrap(clierr.CodeInvalidArgument, "read session wasm", err)
		}
		return ExecutableDeployItem{Kind: ItemModuleBytes, ModuleBytes: module, Args: runtimeArgs}, nil
	}

	entry := strings.TrimSpace(p.EntryPoint)
	if entry == "" {
		return ExecutableDeployItem{}, clierr.New(clierr.CodeInvalidArgument, "--session-entry-point is required for stored session code")
	}
	version, err := ParseVersion(p.Version)
	if err != nil {
		return ExecutableDeployItem{}, err
	}
	item := ExecutableDeployItem{EntryPoint: entry, Args: runtimeArgs}
	switch {
	case strings.TrimSpace(p.Hash) != "":
		d, err := parseHashArg("--session-hash", p.Hash)
		if err != nil {
			return ExecutableDeployItem{}, err
		}
		item.Kind, item.Hash = ItemStoredContractByHash, d
	case strings.TrimSpace(p.Name) != "":
		item.Kind, item.Name = ItemStoredContractByName, strings.TrimSpace(p.Name)
	case strings.TrimSpace(p.PackageHash) != "":
		d, err := parseHashArg("--session-package-hash", p.PackageHash)
		if err != nil {
			return ExecutableDeployItem{}, err
		}
		item.Kind, item.Hash, item.Version = ItemStoredVersionedContractByHash, d, version
	default:
		item.Kind, item.Name, item.Version = ItemStoredVersionedContractByName, strings.TrimSpace(p.PackageName), version
	}
	return item, nil
}

// BuildPayment turns PaymentParams into an executable item.
func BuildPayment(p PaymentParams) (ExecutableDeployItem, error) {
	hasAmount := strings.TrimSpace(p.Amount) != ""
	hasPath := strings.TrimSpace(p.Path) != ""
	if hasAmount == hasPath {
		return ExecutableDeployItem{}, clierr.New(clierr.CodeInvalidArgument, "exactly one of --payment-amount or --payment-path is required")
	}
	if hasAmount {
		return StandardPayment(p.Amount)
	}
	runtimeArgs, err := ParseSimpleArgs(p.Args)
	if err != nil {
		return ExecutableDeployItem{}, err
	}
	module, err := os.ReadFile(p.Path)
	if err != nil {
		return ExecutableDeployItem{}, clierr.Wrap(clierr.CodeInvalidArgument, "read payment wasm", err)
	}
	return ExecutableDeployItem{Kind: ItemModuleBytes, ModuleBytes: module, Args: runtimeArgs}, nil
}
