package app

import (
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/keys"
	"github.com/ggonzalez94/casper-cli/internal/model"
	"github.com/ggonzalez94/casper-cli/internal/txn"
	"github.com/spf13/cobra"
)

func (s *runtimeState) newKeygenCommand() *cobra.Command {
	var (
		algorithm string
		force     bool
	)
	cmd := &cobra.Command{
		Use:   "keygen [output-dir]",
		Short: "Generate a key pair and write it as PEM and hex files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			algo, err := keys.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}
			key, err := keys.Generate(algo)
			if err != nil {
				return err
			}
			files, err := keys.WriteFiles(dir, key, force)
			if err != nil {
				return err
			}
			pub := key.PublicKey()
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), model.KeyFiles{
				Algorithm: algo.String(),
				PublicKey: pub.Hex(),
				Account:   pub.AccountHash().String(),
				Files:     files,
			}, cacheMetaBypass())
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", chain.AlgorithmEd25519.String(), "Key algorithm: ed25519 or secp256k1")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing key files")
	return cmd
}

func (s *runtimeState) newHistoryCommand() *cobra.Command {
	var (
		limit int
		kind  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent submissions recorded by put-* and send-* commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind = strings.ToLower(strings.TrimSpace(kind))
			switch txn.Kind(kind) {
			case "", txn.KindTransaction, txn.KindDeploy:
			default:
				return clierr.Newf(clierr.CodeInvalidArgument, "unknown kind %q (expected %s or %s)", kind, txn.KindTransaction, txn.KindDeploy)
			}
			store, err := s.openJournal()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context(), kind, limit)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "read journal", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), entries, cacheMetaBypass())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of submissions to return")
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind: transaction or deploy")
	return cmd
}
