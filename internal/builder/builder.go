package builder

import (
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/keys"
	"github.com/ggonzalez94/casper-cli/internal/txn"
)

// KeyLoader loads a signing key from a file path.
type KeyLoader func(path string) (keys.SecretKey, error)

// Builder turns string params into transactions and deploys.
type Builder struct {
	now     func() time.Time
	loadKey KeyLoader
}

func New(now func() time.Time, loadKey KeyLoader) *Builder {
	if now == nil {
		now = time.Now
	}
	if loadKey == nil {
		loadKey = keys.Load
	}
	return &Builder{now: now, loadKey: loadKey}
}

// MakeTransaction validates p and builds a transaction around body. The result is
// signed when p.SecretKey is set and unsigned otherwise.
func (b *Builder) MakeTransaction(p TransactionParams, body args.Body) (*txn.Transaction, error) {
	key, err := b.optionalKey(p.SecretKey)
	if err != nil {
		return nil, err
	}
	initiator, err := ResolveInitiator(p.InitiatorAddr, publicKeyOf(key))
	if err != nil {
		return nil, err
	}
	timestamp, err := ResolveTimestamp(p.Timestamp, b.now)
	if err != nil {
		return nil, err
	}
	ttl, err := ResolveTTL(p.TTL)
	if err != nil {
		return nil, err
	}
	chainName, err := ResolveChainName(p.ChainName)
	if err != nil {
		return nil, err
	}
	pricing, err := ResolvePricingMode(p.PricingMode, p.PaymentAmount, p.GasPriceTolerance, p.AdditionalComputationFactor, p.StandardPayment)
	if err != nil {
		return nil, err
	}

	tx := txn.NewTransaction(txn.Payload{
		InitiatorAddr: initiator,
		Timestamp:     timestamp,
		TTL:           ttl,
		ChainName:     chainName,
		PricingMode:   pricing,
		Fields:        body,
	})
	if key != nil {
		if err := tx.Sign(key); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// MakeDeploy validates p and builds a deploy from session and payment. The deploy
// account must be a public key: SessionAccount when set, else the signing key's.
func (b *Builder) MakeDeploy(p DeployParams, session, payment args.ExecutableDeployItem) (*txn.Deploy, error) {
	key, err := b.optionalKey(p.SecretKey)
	if err != nil {
		return nil, err
	}
	var account chain.PublicKey
	switch {
	case strings.TrimSpace(p.SessionAccount) != "":
		account, err = chain.ParsePublicKeyHex(p.SessionAccount)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid session account", err)
		}
	case key != nil:
		account = key.PublicKey()
	default:
		return nil, clierr.New(clierr.CodeInvalidArgument, "either a session account or a secret key is required")
	}
	timestamp, err := ResolveTimestamp(p.Timestamp, b.now)
	if err != nil {
		return nil, err
	}
	ttl, err := ResolveTTL(p.TTL)
	if err != nil {
		return nil, err
	}
	chainName, err := ResolveChainName(p.ChainName)
	if err != nil {
		return nil, err
	}
	gasPrice := uint64(1)
	if raw := strings.TrimSpace(p.GasPriceTolerance); raw != "" {
		gasPrice, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeInvalidArgument, "invalid gas price tolerance", err)
		}
	}

	deploy := txn.NewDeploy(txn.DeployHeader{
		Account:   account,
		Timestamp: timestamp,
		TTL:       ttl,
		GasPrice:  gasPrice,
		ChainName: chainName,
	}, payment, session)
	if key != nil {
		if err := deploy.Sign(key); err != nil {
			return nil, err
		}
	}
	return deploy, nil
}

func (b *Builder) optionalKey(path string) (keys.SecretKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return b.loadKey(path)
}

func publicKeyOf(key keys.SecretKey) *chain.PublicKey {
	if key == nil {
		return nil
	}
	pub := key.PublicKey()
	return &pub
}
