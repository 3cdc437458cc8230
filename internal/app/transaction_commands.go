package app

import (
	"fmt"

	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/builder"
	"github.com/spf13/cobra"
)

var bodyDescriptions = map[args.BodyKind]string{
	args.BodyTransfer:             "Native transfer of motes to a public key or account hash",
	args.BodySession:              "Run session wasm",
	args.BodyInvocableEntity:      "Call an entry point of an entity by hash",
	args.BodyInvocableEntityAlias: "Call an entry point of an entity by named key",
	args.BodyPackage:              "Call an entry point of a package by hash",
	args.BodyPackageAlias:         "Call an entry point of a package by named key",
	args.BodyDelegate:             "Delegate motes to a validator",
	args.BodyUndelegate:           "Undelegate motes from a validator",
}

// newTransactionCommand builds make-transaction (submit=false) or put-transaction
// (submit=true) with one subcommand per transaction body kind.
func (s *runtimeState) newTransactionCommand(use string, submit bool) *cobra.Command {
	short := "Build a transaction and write it to a file or stdout"
	if submit {
		short = "Build a transaction and send it to a node"
	}
	root := &cobra.Command{Use: use, Short: short}
	for _, kind := range args.BodyKinds {
		root.AddCommand(s.newTransactionBodyCommand(kind, submit))
	}
	return root
}

func (s *runtimeState) newTransactionBodyCommand(kind args.BodyKind, submit bool) *cobra.Command {
	var (
		params builder.TransactionParams
		body   = args.BodyParams{Kind: kind}
		sink   = sinkFlags{submit: submit}
	)
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: bodyDescriptions[kind],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			built, err := args.BuildBody(body)
			if err != nil {
				return err
			}
			params.ChainName = s.chainName(params.ChainName)
			tx, err := builder.New(s.runner.now, nil).MakeTransaction(params, built)
			if err != nil {
				return err
			}
			return s.dispatchArtifact(cmd, tx, sink)
		},
	}
	bindTransactionFlags(cmd, &params)
	bindBodyFlags(cmd, &body)
	addSinkFlags(cmd, &sink)
	return cmd
}

func bindTransactionFlags(cmd *cobra.Command, p *builder.TransactionParams) {
	f := cmd.Flags()
	f.StringVarP(&p.SecretKey, "secret-key", "k", "", "Path to the secret key PEM file; the transaction is left unsigned when empty")
	f.StringVar(&p.Timestamp, "timestamp", "", "RFC3339-like timestamp, e.g. 2018-02-16T00:31:37Z (default: now)")
	f.StringVar(&p.TTL, "ttl", builder.DefaultTTL, "Time to live, e.g. 30min, '1hr 12min', 1day")
	f.StringVarP(&p.ChainName, "chain-name", "c", "", "Name of the chain the transaction is valid for (default from config)")
	f.StringVarP(&p.InitiatorAddr, "initiator-address", "i", "", "Hex public key, account-hash- or entity-account- address of the initiator (default: from --secret-key)")
	f.StringVar(&p.PricingMode, "pricing-mode", builder.PricingModeFixed, fmt.Sprintf("Pricing mode: %s or %s", builder.PricingModeFixed, builder.PricingModeClassic))
	f.StringVar(&p.PaymentAmount, "payment-amount", "", "Payment amount in motes (classic pricing)")
	f.StringVar(&p.GasPriceTolerance, "gas-price-tolerance", builder.DefaultGasPriceTolerance, "Maximum gas price multiplier the initiator accepts")
	f.StringVar(&p.AdditionalComputationFactor, "additional-computation-factor", builder.DefaultAdditionalComputationFactor, "Additional computation factor (fixed pricing)")
	f.StringVar(&p.StandardPayment, "standard-payment", "true", "Use standard payment (classic pricing)")
}

func bindBodyFlags(cmd *cobra.Command, p *args.BodyParams) {
	f := cmd.Flags()
	if p.Kind != args.BodyDelegate && p.Kind != args.BodyUndelegate {
		f.StringArrayVarP(&p.Args, "session-arg", "a", nil, "Runtime argument name:type='value' (repeatable)")
	}
	switch p.Kind {
	case args.BodyTransfer:
		f.StringVar(&p.Target, "target", "", "Hex public key or account-hash- of the recipient")
		f.StringVar(&p.Amount, "transfer-amount", "", "Amount in motes")
		f.StringVar(&p.TransferID, "transfer-id", "", "Optional u64 transfer id")
		_ = cmd.MarkFlagRequired("target")
		_ = cmd.MarkFlagRequired("transfer-amount")
	case args.BodySession:
		f.StringVar(&p.WasmPath, "wasm-path", "", "Path to the session wasm")
		f.BoolVar(&p.InstallUpgrade, "install-upgrade", false, "Mark the session as installing or upgrading a contract")
		_ = cmd.MarkFlagRequired("wasm-path")
	case args.BodyInvocableEntity:
		f.StringVar(&p.EntityHash, "entity-address", "", "Hex hash of the entity")
		_ = cmd.MarkFlagRequired("entity-address")
	case args.BodyInvocableEntityAlias:
		f.StringVar(&p.EntityAlias, "entity-alias", "", "Named key of the entity")
		_ = cmd.MarkFlagRequired("entity-alias")
	case args.BodyPackage:
		f.StringVar(&p.PackageHash, "package-address", "", "Hex hash of the package")
		f.StringVar(&p.PackageVersion, "package-version", "", "Package version (default: latest)")
		_ = cmd.MarkFlagRequired("package-address")
	case args.BodyPackageAlias:
		f.StringVar(&p.PackageName, "package-alias", "", "Named key of the package")
		f.StringVar(&p.PackageVersion, "package-version", "", "Package version (default: latest)")
		_ = cmd.MarkFlagRequired("package-alias")
	case args.BodyDelegate, args.BodyUndelegate:
		f.StringVar(&p.Delegator, "delegator", "", "Hex public key of the delegator")
		f.StringVar(&p.Validator, "validator", "", "Hex public key of the validator")
		f.StringVar(&p.Amount, "transfer-amount", "", "Amount in motes")
		_ = cmd.MarkFlagRequired("delegator")
		_ = cmd.MarkFlagRequired("validator")
		_ = cmd.MarkFlagRequired("transfer-amount")
	}
	switch p.Kind {
	case args.BodyInvocableEntity, args.BodyInvocableEntityAlias, args.BodyPackage, args.BodyPackageAlias:
		f.StringVar(&p.EntryPoint, "entry-point", "", "Entry point to call")
		_ = cmd.MarkFlagRequired("entry-point")
	}
}
