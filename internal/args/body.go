package args

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

type BodyKind string

const (
	BodyTransfer             BodyKind = "transfer"
	BodySession              BodyKind = "session"
	BodyInvocableEntity      BodyKind = "invocable-entity"
	BodyInvocableEntityAlias BodyKind = "invocable-entity-alias"
	BodyPackage              BodyKind = "package"
	BodyPackageAlias         BodyKind = "package-alias"
	BodyDelegate             BodyKind = "delegate"
	BodyUndelegate           BodyKind = "undelegate"
)

// BodyKinds lists the accepted transaction body kinds in display order.
var BodyKinds = []BodyKind{
	BodyTransfer, BodySession, BodyInvocableEntity, BodyInvocableEntityAlias,
	BodyPackage, BodyPackageAlias, BodyDelegate, BodyUndelegate,
}

// BodyParams holds the string inputs of every body kind; each kind reads only its own fields.
type BodyParams struct {
	Kind       BodyKind
	Args       []string
	EntryPoint string

	// transfer
	Target     string
	Amount     string
	TransferID string

	// session
	WasmPath       string
	InstallUpgrade bool

	// invocable entity / package
	EntityHash     string
	EntityAlias    string
	PackageHash    string
	PackageName    string
	PackageVersion string

	// delegate / undelegate
	Delegator string
	Validator string
}

// BuildBody validates p and produces the transaction body it describes.
func BuildBody(p BodyParams) (Body, error) {
	runtimeArgs, err := ParseSimpleArgs(p.Args)
	if err != nil {
		return Body{}, err
	}
	body := Body{Args: runtimeArgs, Scheduling: schedulingStandard}

	switch p.Kind {
	case BodyTransfer:
		transferArgs, err := TransferArgs(p.Target, p.Amount, p.TransferID)
		if err != nil {
			return Body{}, err
		}
		body.Args = append(transferArgs, body.Args...)
		body.Target, body.EntryPoint = NativeTarget(), EntryPointTransfer
	case BodyDelegate, BodyUndelegate:
		delegationArgs, err := delegationArgs(p.Delegator, p.Validator, p.Amount)
		if err != nil {
			return Body{}, err
		}
		body.Args = delegationArgs
		body.Target = NativeTarget()
		body.EntryPoint = EntryPointDelegate
		if p.Kind == BodyUndelegate {
			body.EntryPoint = EntryPointUndelegate
		}
	case BodySession:
		if strings.TrimSpace(p.WasmPath) == "" {
			return Body{}, clierr.New(clierr.CodeInvalidArgument, "--wasm-path is required for session transactions")
		}
		module, err := os.ReadFile(p.WasmPath)
		if err != nil {
			return Body{}, clierr.Wrap(clierr.CodeInvalidArgument, "read session wasm", err)
		}
		body.Target, body.EntryPoint = SessionTarget(module, p.InstallUpgrade), EntryPointCall
	case BodyInvocableEntity, BodyInvocableEntityAlias, BodyPackage, BodyPackageAlias:
		inv, err := invocation(p)
		if err != nil {
			return Body{}, err
		}
		entry := strings.TrimSpace(p.EntryPoint)
		if entry == "" {
			return Body{}, clierr.New(clierr.CodeInvalidArgument, "--entry-point is required for stored targets")
		}
		body.Target, body.EntryPoint = StoredTarget(inv), EntryPoint(entry)
	default:
		return Body{}, clierr.Newf(clierr.CodeInvalidArgument, "unknown transaction body %q", p.Kind)
	}
	return body, nil
}

func invocation(p BodyParams) (Invocation, error) {
	switch p.Kind {
	case BodyInvocableEntity:
		d, err := parseHashArg("--entity-address", p.EntityHash)
		if err != nil {
			return Invocation{}, err
		}
		return Invocation{Kind: InvokeByHash, Hash: d}, nil
	case BodyInvocableEntityAlias:
		if strings.TrimSpace(p.EntityAlias) == "" {
			return Invocation{}, clierr.New(clierr.CodeInvalidArgument, "--entity-alias is required")
		}
		return Invocation{Kind: InvokeByName, Name: strings.TrimSpace(p.EntityAlias)}, nil
	case BodyPackage:
		d, err := parseHashArg("--package-address", p.PackageHash)
		if err != nil {
			return Invocation{}, err
		}
		version, err := ParseVersion(p.PackageVersion)
		if err != nil {
			return Invocation{}, err
		}
		return Invocation{Kind: InvokeByPackageHash, Hash: d, Version: version}, nil
	default:
		if strings.TrimSpace(p.PackageName) == "" {
			return Invocation{}, clierr.New(clierr.CodeInvalidArgument, "--package-alias is required")
		}
		version, err := ParseVersion(p.PackageVersion)
		if err != nil {
			return Invocation{}, err
		}
		return Invocation{Kind: InvokeByPackageName, Name: strings.TrimSpace(p.PackageName), Version: version}, nil
	}
}

// ParseVersion parses an optional u32 package version; empty means latest.
func ParseVersion(raw string) (*uint32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid package version", err)
	}
	version := uint32(v)
	return &version, nil
}

func parseHashArg(flag, raw string) (chain.Digest, error) {
	if strings.TrimSpace(raw) == "" {
		return chain.Digest{}, clierr.Newf(clierr.CodeInvalidArgument, "%s is required", flag)
	}
	clean := strings.TrimSpace(raw)
	for _, prefix := range []string{"entity-contract-", "contract-package-", "package-", "hash-"} {
		clean = strings.TrimPrefix(clean, prefix)
	}
	d, err := chain.ParseDigest(clean)
	if err != nil {
		return chain.Digest{}, clierr.Wrap(clierr.CodeInvalidArgument, fmt.Sprintf("invalid %s", flag), err)
	}
	return d, nil
}

// TransferArgs builds the native transfer args: target, amount and an optional id.
// The target may be a hex public key or a formatted account hash.
func TransferArgs(target, amount, transferID string) (RuntimeArgs, error) {
	if strings.TrimSpace(target) == "" {
		return nil, clierr.New(clierr.CodeInvalidArgument, "transfer target is required")
	}
	var targetValue CLValue
	if k, err := chain.ParsePublicKeyHex(target); err == nil {
		targetValue = PublicKeyValue(k)
	} else if a, err := chain.ParseAccountHash(target); err == nil {
		targetValue = AccountHashValue(a)
	} else {
		return nil, clierr.Newf(clierr.CodeInvalidArgument, "transfer target %q is not a public key or account hash", target)
	}
	amountValue, err := parseMotes("amount", amount)
	if err != nil {
		return nil, err
	}
	var id *uint64
	if strings.TrimSpace(transferID) != "" {
		v, err := strconv.ParseUint(strings.TrimSpace(transferID), 10, 64)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid transfer id", err)
		}
		id = &v
	}
	return RuntimeArgs{}.
		With("target", targetValue).
		With("amount", amountValue).
		With("id", OptionU64Value(id)), nil
}

func delegationArgs(delegator, validator, amount string) (RuntimeArgs, error) {
	delegatorKey, err := chain.ParsePublicKeyHex(delegator)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid delegator public key", err)
	}
	validatorKey, err := chain.ParsePublicKeyHex(validator)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid validator public key", err)
	}
	amountValue, err := parseMotes("amount", amount)
	if err != nil {
		return nil, err
	}
	return RuntimeArgs{}.
		With("delegator", PublicKeyValue(delegatorKey)).
		With("validator", PublicKeyValue(validatorKey)).
		With("amount", amountValue), nil
}

func parseMotes(name, raw string) (CLValue, error) {
	if strings.TrimSpace(raw) == "" {
		return CLValue{}, clierr.Newf(clierr.CodeInvalidArgument, "%s is required", name)
	}
	v, err := ParseBigUint(raw, 512)
	if err != nil {
		return CLValue{}, clierr.Wrap(clierr.CodeInvalidArgument, fmt.Sprintf("invalid %s", name), err)
	}
	return U512Value(v), nil
}
