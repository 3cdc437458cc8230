package app

import (
	"os"
	"strings"
	"time"

	"github.com/ggonzalez94/casper-cli/internal/dispatch"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/httpx"
	"github.com/ggonzalez94/casper-cli/internal/model"
	"github.com/ggonzalez94/casper-cli/internal/rpc"
	"github.com/ggonzalez94/casper-cli/internal/txn"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type nodeFlags struct {
	address string
	id      string
}

func addNodeFlags(cmd *cobra.Command, nf *nodeFlags) {
	cmd.Flags().StringVarP(&nf.address, "node-address", "n", "", "Node address, e.g. http://localhost:7777 (default from config)")
	cmd.Flags().StringVar(&nf.id, "id", "", "JSON-RPC request id (default: random UUID)")
}

type outputFlags struct {
	path  string
	force bool
}

func addOutputFlags(cmd *cobra.Command, of *outputFlags) {
	cmd.Flags().StringVarP(&of.path, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().BoolVar(&of.force, "force", false, "Overwrite the output file if it exists")
}

// sinkFlags selects where a built artifact goes: a file or stdout, or a node.
type sinkFlags struct {
	submit      bool
	speculative bool
	node        nodeFlags
	output      outputFlags
}

func addSinkFlags(cmd *cobra.Command, sf *sinkFlags) {
	if sf.submit {
		addNodeFlags(cmd, &sf.node)
		cmd.Flags().BoolVar(&sf.speculative, "speculative", false, "Execute without committing state (speculative execution)")
		return
	}
	addOutputFlags(cmd, &sf.output)
}

// nodeClient builds a client for read-only calls, retried up to --retries times.
func (s *runtimeState) nodeClient(nf nodeFlags) (*rpc.Client, string) {
	return s.nodeClientWithRetries(nf, s.settings.Retries)
}

// submitClient builds a single-shot client: a submission reaches the node at most once.
func (s *runtimeState) submitClient(nf nodeFlags) (*rpc.Client, string) {
	return s.nodeClientWithRetries(nf, 0)
}

func (s *runtimeState) nodeClientWithRetries(nf nodeFlags, retries int) (*rpc.Client, string) {
	addr := strings.TrimSpace(nf.address)
	if addr == "" {
		addr = s.settings.NodeAddress
	}
	return rpc.New(addr, httpx.New(s.settings.Timeout, retries), s.log), addr
}

func (s *runtimeState) chainName(flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return s.settings.ChainName
}

// dispatchArtifact sends artifact to the sink chosen by sf and renders the outcome.
func (s *runtimeState) dispatchArtifact(cmd *cobra.Command, artifact txn.Artifact, sf sinkFlags) error {
	commandPath := trimRootPath(cmd.CommandPath())
	if artifact.RequiresSignature() {
		s.warn(unsignedWarning(artifact.Kind()))
	}

	if !sf.submit && sf.output.path == "" && s.settings.Envelope {
		return s.emitSuccess(commandPath, artifact, cacheMetaBypass())
	}
	if !sf.submit {
		d := dispatch.New(nil, s.runner.stdout, s.log)
		outcome, err := d.Dispatch(cmd.Context(), artifact, dispatch.Target{
			Sink:       dispatch.LocalWrite,
			OutputPath: sf.output.path,
			Force:      sf.output.force,
		})
		if err != nil {
			return err
		}
		if outcome.Path == "" {
			return nil
		}
		return s.emitSuccess(commandPath, model.LocalWrite{
			Kind:    string(artifact.Kind()),
			Hash:    artifact.TransactionHash().String(),
			Path:    outcome.Path,
			Message: outcome.Message,
			Signed:  !artifact.RequiresSignature(),
		}, cacheMetaBypass())
	}

	client, addr := s.submitClient(sf.node)
	d := dispatch.New(client, s.runner.stdout, s.log)
	if s.settings.JournalEnabled {
		if store, err := s.openJournal(); err != nil {
			s.log.Warn("journal unavailable", zap.Error(err))
		} else {
			d.WithJournal(store, addr)
		}
	}
	id := rpc.ParseID(sf.node.id)
	sink := dispatch.SubmitSink(sf.speculative)
	s.lastNode = &model.NodeStatus{Address: addr, Method: dispatch.Method(artifact.Kind(), sink), RPCID: id.String()}

	start := time.Now()
	outcome, err := d.Dispatch(cmd.Context(), artifact, dispatch.Target{Sink: sink, RPCID: id})
	s.lastNode.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		return err
	}
	return s.emitSuccess(commandPath, outcome.Response, cacheMetaBypass())
}

func unsignedWarning(kind txn.Kind) string {
	return "the " + string(kind) + " is not signed; sign it with sign-" + string(kind) + " before sending it"
}

func readArtifactFile(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, clierr.New(clierr.CodeInvalidArgument, "--input is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInvalidArgument, "read input file", err)
	}
	return data, nil
}

func loadArtifact(kind txn.Kind, path string) (txn.Artifact, error) {
	data, err := readArtifactFile(path)
	if err != nil {
		return nil, err
	}
	if kind == txn.KindDeploy {
		d, err := txn.ParseDeploy(data)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	tx, err := txn.ParseTransaction(data)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
