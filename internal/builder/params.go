package builder

import (
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/txn"
)

const (
	DefaultTTL                         = "30min"
	DefaultGasPriceTolerance           = "1"
	DefaultAdditionalComputationFactor = "0"
	PricingModeFixed                   = "fixed"
	PricingModeClassic                 = "classic"
)

// TransactionParams are the raw string inputs of make-transaction and put-transaction.
type TransactionParams struct {
	SecretKey                   string
	Timestamp                   string
	TTL                         string
	ChainName                   string
	InitiatorAddr               string
	PricingMode                 string
	PaymentAmount               string
	GasPriceTolerance           string
	AdditionalComputationFactor string
	StandardPayment             string
}

// DeployParams are the raw string inputs of make-deploy and put-deploy.
type DeployParams struct {
	SecretKey         string
	Timestamp         string
	TTL               string
	ChainName         string
	SessionAccount    string
	GasPriceTolerance string
}

// ResolveTimestamp returns now when raw is empty and the parsed instant otherwise.
func ResolveTimestamp(raw string, now func() time.Time) (chain.Timestamp, error) {
	if strings.TrimSpace(raw) == "" {
		return chain.TimestampFromTime(now()), nil
	}
	ts, err := chain.ParseTimestamp(raw)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInvalidArgument, "invalid timestamp", err)
	}
	return ts, nil
}

// ResolveTTL parses a human duration and rejects zero.
func ResolveTTL(raw string) (chain.TimeDiff, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, clierr.New(clierr.CodeInvalidArgument, "ttl is required")
	}
	ttl, err := chain.ParseTimeDiff(raw)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInvalidArgument, "invalid ttl", err)
	}
	if ttl == 0 {
		return 0, clierr.New(clierr.CodeInvalidArgument, "ttl must be greater than zero")
	}
	return ttl, nil
}

func ResolveChainName(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", clierr.New(clierr.CodeInvalidArgument, "chain name is required")
	}
	return raw, nil
}

// ResolveInitiator parses raw when set; otherwise it falls back to the public key of
// the signing key. keyPub is nil when no secret key was given.
func ResolveInitiator(raw string, keyPub *chain.PublicKey) (chain.InitiatorAddr, error) {
	if strings.TrimSpace(raw) != "" {
		addr, err := chain.ParseInitiatorAddr(raw)
		if err != nil {
			return chain.InitiatorAddr{}, clierr.Wrap(clierr.CodeInvalidArgument, "invalid initiator address", err)
		}
		return addr, nil
	}
	if keyPub == nil {
		return chain.InitiatorAddr{}, clierr.New(clierr.CodeInvalidArgument, "either an initiator address or a secret key is required")
	}
	return chain.InitiatorFromPublicKey(*keyPub), nil
}

// ResolvePricingMode builds the pricing mode from its string inputs.
func ResolvePricingMode(mode, paymentAmount, gasPriceTolerance, computationFactor, standardPayment string) (txn.PricingMode, error) {
	tolerance, err := parseU8("gas price tolerance", gasPriceTolerance, DefaultGasPriceTolerance)
	if err != nil {
		return txn.PricingMode{}, err
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", PricingModeFixed:
		factor, err := parseU8("additional computation factor", computationFactor, DefaultAdditionalComputationFactor)
		if err != nil {
			return txn.PricingMode{}, err
		}
		return txn.PricingMode{Kind: txn.PricingFixed, GasPriceTolerance: tolerance, AdditionalComputationFactor: factor}, nil
	case PricingModeClassic:
		if strings.TrimSpace(paymentAmount) == "" {
			return txn.PricingMode{}, clierr.New(clierr.CodeInvalidArgument, "classic pricing requires a payment amount")
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(paymentAmount), 10, 64)
		if err != nil {
			return txn.PricingMode{}, clierr.Wrap(clierr.CodeInvalidArgument, "invalid payment amount", err)
		}
		standard := true
		if strings.TrimSpace(standardPayment) != "" {
			standard, err = strconv.ParseBool(strings.TrimSpace(standardPayment))
			if err != nil {
				return txn.PricingMode{}, clierr.Wrap(clierr.CodeInvalidArgument, "invalid standard payment flag", err)
			}
		}
		return txn.PricingMode{Kind: txn.PricingPaymentLimited, GasPriceTolerance: tolerance, PaymentAmount: amount, StandardPayment: standard}, nil
	default:
		return txn.PricingMode{}, clierr.Newf(clierr.CodeInvalidArgument, "unknown pricing mode %q (expected %s|%s)", mode, PricingModeFixed, PricingModeClassic)
	}
}

func parseU8(name, raw, fallback string) (uint8, error) {
	if strings.TrimSpace(raw) == "" {
		raw = fallback
	}
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 8)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeInvalidArgument, "invalid "+name, err)
	}
	return uint8(v), nil
}
