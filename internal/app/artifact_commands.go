package app

import (
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/keys"
	"github.com/ggonzalez94/casper-cli/internal/txn"
	"github.com/spf13/cobra"
)

func kindOf(use string) txn.Kind {
	if strings.HasSuffix(use, "-deploy") {
		return txn.KindDeploy
	}
	return txn.KindTransaction
}

// newSendCommand builds send-transaction or send-deploy: submit a previously built file.
func (s *runtimeState) newSendCommand(use string) *cobra.Command {
	kind := kindOf(use)
	var (
		input string
		sink  = sinkFlags{submit: true}
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: "Send a " + string(kind) + " read from a file to a node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			artifact, err := loadArtifact(kind, input)
			if err != nil {
				return err
			}
			return s.dispatchArtifact(cmd, artifact, sink)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Path to the "+string(kind)+" JSON file")
	_ = cmd.MarkFlagRequired("input")
	addSinkFlags(cmd, &sink)
	return cmd
}

// newSignCommand builds sign-transaction or sign-deploy: add an approval to a file.
func (s *runtimeState) newSignCommand(use string) *cobra.Command {
	kind := kindOf(use)
	var (
		input     string
		secretKey string
		sink      sinkFlags
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: "Sign a " + string(kind) + " read from a file and write the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			artifact, err := loadArtifact(kind, input)
			if err != nil {
				return err
			}
			key, err := keys.Load(secretKey)
			if err != nil {
				return err
			}
			if err := artifact.Sign(key); err != nil {
				return err
			}
			return s.dispatchArtifact(cmd, artifact, sink)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Path to the "+string(kind)+" JSON file")
	cmd.Flags().StringVarP(&secretKey, "secret-key", "k", "", "Path to the secret key PEM file")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("secret-key")
	addSinkFlags(cmd, &sink)
	return cmd
}
