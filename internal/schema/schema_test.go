package schema

import (
	"testing"

	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/spf13/cobra"
)

func TestBuildSchema(t *testing.T) {
	root := &cobra.Command{Use: "casper-client"}
	makeTx := &cobra.Command{Use: "make-transaction", Short: "build a transaction"}
	transfer := &cobra.Command{Use: "transfer", Short: "native transfer"}
	transfer.Flags().String("target", "", "transfer target")
	_ = transfer.MarkFlagRequired("target")
	transfer.Flags().StringP("chain-name", "c", "", "chain name")
	makeTx.AddCommand(transfer)
	makeDeploy := &cobra.Command{Use: "make-deploy", Annotations: map[string]string{DeprecatedAnnotation: "make-transaction"}}
	root.AddCommand(makeTx, makeDeploy)

	s, err := Build(root, "make-transaction transfer")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if s.Path != "casper-client make-transaction transfer" {
		t.Fatalf("unexpected path: %s", s.Path)
	}
	if len(s.Flags) != 2 {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
	for _, f := range s.Flags {
		if f.Name == "target" && !f.Required {
			t.Fatal("expected target to be required")
		}
		if f.Name == "chain-name" && f.Shorthand != "c" {
			t.Fatalf("unexpected shorthand %q", f.Shorthand)
		}
	}

	full, err := Build(root, "")
	if err != nil {
		t.Fatalf("Build root failed: %v", err)
	}
	if len(full.Subcommands) != 2 || full.Subcommands[0].Deprecated != "make-transaction" {
		t.Fatalf("unexpected root schema: %+v", full.Subcommands)
	}

	if _, err := Build(root, "send-nothing"); clierr.CodeOf(err) != clierr.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
