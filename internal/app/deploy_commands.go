package app

import (
	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/builder"
	"github.com/spf13/cobra"
)

// newDeployCommand builds make-deploy (submit=false) or put-deploy (submit=true).
func (s *runtimeState) newDeployCommand(use string, submit bool) *cobra.Command {
	var (
		params  builder.DeployParams
		session args.SessionParams
		payment args.PaymentParams
		sink    = sinkFlags{submit: submit}
	)
	short := "Build a deploy and write it to a file or stdout"
	if submit {
		short = "Build a deploy and send it to a node"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessionItem, err := args.BuildSession(session)
			if err != nil {
				return err
			}
			paymentItem, err := args.BuildPayment(payment)
			if err != nil {
				return err
			}
			params.ChainName = s.chainName(params.ChainName)
			deploy, err := builder.New(s.runner.now, nil).MakeDeploy(params, sessionItem, paymentItem)
			if err != nil {
				return err
			}
			return s.dispatchArtifact(cmd, deploy, sink)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&params.SecretKey, "secret-key", "k", "", "Path to the secret key PEM file; the deploy is left unsigned when empty")
	f.StringVar(&params.Timestamp, "timestamp", "", "RFC3339-like timestamp (default: now)")
	f.StringVar(&params.TTL, "ttl", builder.DefaultTTL, "Time to live, e.g. 30min, '1hr 12min', 1day")
	f.StringVarP(&params.ChainName, "chain-name", "c", "", "Name of the chain the deploy is valid for (default from config)")
	f.StringVar(&params.SessionAccount, "session-account", "", "Hex public key of the deploy account (default: from --secret-key)")
	f.StringVar(&params.GasPriceTolerance, "gas-price-tolerance", "", "Gas price (default: 1)")

	f.StringVar(&session.Path, "session-path", "", "Path to session wasm")
	f.StringVar(&session.Hash, "session-hash", "", "Hex hash of a stored contract")
	f.StringVar(&session.Name, "session-name", "", "Named key of a stored contract")
	f.StringVar(&session.PackageHash, "session-package-hash", "", "Hex hash of a stored contract package")
	f.StringVar(&session.PackageName, "session-package-name", "", "Named key of a stored contract package")
	f.StringVar(&session.Version, "session-version", "", "Contract package version (default: latest)")
	f.StringVar(&session.EntryPoint, "session-entry-point", "", "Entry point of the stored session")
	f.StringArrayVarP(&session.Args, "session-arg", "a", nil, "Session argument name:type='value' (repeatable)")
	f.BoolVar(&session.Transfer, "transfer", false, "Make the session a native transfer")
	f.StringVar(&session.TransferTarget, "target-account", "", "Transfer recipient: hex public key or account-hash-")
	f.StringVar(&session.TransferAmount, "transfer-amount", "", "Transfer amount in motes")
	f.StringVar(&session.TransferID, "transfer-id", "", "Optional u64 transfer id")

	f.StringVarP(&payment.Amount, "payment-amount", "p", "", "Standard payment amount in motes")
	f.StringVar(&payment.Path, "payment-path", "", "Path to custom payment wasm")
	f.StringArrayVar(&payment.Args, "payment-arg", nil, "Payment argument name:type='value' (repeatable)")

	addSinkFlags(cmd, &sink)
	return cmd
}
