package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/journal"
	"github.com/ggonzalez94/casper-cli/internal/out"
	"github.com/ggonzalez94/casper-cli/internal/rpc"
	"github.com/ggonzalez94/casper-cli/internal/txn"
	"go.uber.org/zap"
)

type Sink int

const (
	LocalWrite Sink = iota
	NetworkSubmit
	SpeculativeSubmit
)

func (s Sink) String() string {
	switch s {
	case LocalWrite:
		return "local-write"
	case NetworkSubmit:
		return "network-submit"
	case SpeculativeSubmit:
		return "speculative-submit"
	default:
		return fmt.Sprintf("sink(%d)", int(s))
	}
}

// SubmitSink picks the network sink for the --speculative switch.
func SubmitSink(speculative bool) Sink {
	if speculative {
		return SpeculativeSubmit
	}
	return NetworkSubmit
}

// Submitter is the RPC surface the dispatcher needs. *rpc.Client satisfies it.
type Submitter interface {
	PutTransaction(ctx context.Context, id rpc.ID, tx *txn.Transaction) (*rpc.Response, error)
	SpeculativeExecTransaction(ctx context.Context, id rpc.ID, tx *txn.Transaction) (*rpc.Response, error)
	PutDeploy(ctx context.Context, id rpc.ID, d *txn.Deploy) (*rpc.Response, error)
	SpeculativeExecDeploy(ctx context.Context, id rpc.ID, d *txn.Deploy) (*rpc.Response, error)
}

// Recorder keeps a record of accepted submissions. *journal.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry) error
}

type Target struct {
	Sink Sink
	// OutputPath is the LocalWrite destination. Empty means stdout.
	OutputPath string
	Force      bool
	RPCID      rpc.ID
}

// Outcome is the result of exactly one dispatch action.
type Outcome struct {
	Sink     Sink
	Path     string
	Message  string
	Method   string
	RPCID    string
	Latency  time.Duration
	Response *rpc.Response
}

type Dispatcher struct {
	submitter   Submitter
	stdout      io.Writer
	recorder    Recorder
	nodeAddress string
	log         *zap.Logger
}

func New(submitter Submitter, stdout io.Writer, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{submitter: submitter, stdout: stdout, log: log}
}

// WithJournal records successful committing submissions made against nodeAddress.
func (d *Dispatcher) WithJournal(rec Recorder, nodeAddress string) *Dispatcher {
	d.recorder = rec
	d.nodeAddress = nodeAddress
	return d
}

// Dispatch performs the single action selected by target.Sink. Network sinks make
// one RPC call and never retry.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact txn.Artifact, target Target) (Outcome, error) {
	switch target.Sink {
	case LocalWrite:
		return d.write(artifact, target)
	case NetworkSubmit, SpeculativeSubmit:
		return d.submit(ctx, artifact, target)
	default:
		return Outcome{}, clierr.Newf(clierr.CodeInternal, "unknown dispatch sink %s", target.Sink)
	}
}

func (d *Dispatcher) write(artifact txn.Artifact, target Target) (Outcome, error) {
	data, err := out.Pretty(artifact)
	if err != nil {
		return Outcome{}, err
	}
	if target.OutputPath == "" {
		if d.stdout == nil {
			return Outcome{}, clierr.New(clierr.CodeInternal, "no output stream configured")
		}
		if _, err := d.stdout.Write(data); err != nil {
			return Outcome{}, clierr.Wrap(clierr.CodeInternal, "write to stdout", err)
		}
		return Outcome{Sink: LocalWrite}, nil
	}
	if err := WriteFileAtomic(target.OutputPath, data, target.Force); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Sink:    LocalWrite,
		Path:    target.OutputPath,
		Message: fmt.Sprintf("Successfully wrote the %s to %s", artifact.Kind(), target.OutputPath),
	}, nil
}

func (d *Dispatcher) submit(ctx context.Context, artifact txn.Artifact, target Target) (Outcome, error) {
	if d.submitter == nil {
		return Outcome{}, clierr.New(clierr.CodeInternal, "no node client configured")
	}
	speculative := target.Sink == SpeculativeSubmit

	var call func() (*rpc.Response, error)
	switch a := artifact.(type) {
	case *txn.Transaction:
		if speculative {
			call = func() (*rpc.Response, error) { return d.submitter.SpeculativeExecTransaction(ctx, target.RPCID, a) }
		} else {
			call = func() (*rpc.Response, error) { return d.submitter.PutTransaction(ctx, target.RPCID, a) }
		}
	case *txn.Deploy:
		if speculative {
			call = func() (*rpc.Response, error) { return d.submitter.SpeculativeExecDeploy(ctx, target.RPCID, a) }
		} else {
			call = func() (*rpc.Response, error) { return d.submitter.PutDeploy(ctx, target.RPCID, a) }
		}
	default:
		return Outcome{}, clierr.Newf(clierr.CodeInternal, "unsupported artifact type %T", artifact)
	}
	method := Method(artifact.Kind(), target.Sink)
	d.log.Debug("dispatching", zap.String("hash", artifact.TransactionHash().String()), zap.String("sink", target.Sink.String()))

	start := time.Now()
	resp, err := call()
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{
		Sink:     target.Sink,
		Method:   method,
		RPCID:    target.RPCID.String(),
		Latency:  time.Since(start),
		Response: resp,
	}
	if !speculative {
		d.record(ctx, artifact, outcome)
	}
	return outcome, nil
}

// Method names the RPC method a network sink uses for kind. It is empty for LocalWrite.
func Method(kind txn.Kind, sink Sink) string {
	switch {
	case sink == LocalWrite:
		return ""
	case kind == txn.KindDeploy && sink == SpeculativeSubmit:
		return rpc.MethodSpeculativeExec
	case kind == txn.KindDeploy:
		return rpc.MethodPutDeploy
	case sink == SpeculativeSubmit:
		return rpc.MethodSpeculativeExecTxn
	default:
		return rpc.MethodPutTransaction
	}
}

func (d *Dispatcher) record(ctx context.Context, artifact txn.Artifact, outcome Outcome) {
	if d.recorder == nil {
		return
	}
	entry := journal.Entry{
		Hash:        artifact.TransactionHash().String(),
		Kind:        string(artifact.Kind()),
		Method:      outcome.Method,
		ChainName:   artifact.ChainName(),
		NodeAddress: d.nodeAddress,
		RPCID:       outcome.RPCID,
	}
	if outcome.Response != nil {
		entry.Response = outcome.Response.Result
	}
	if err := d.recorder.Record(ctx, entry); err != nil {
		d.log.Warn("journal write failed", zap.String("hash", entry.Hash), zap.Error(err))
	}
}

// WriteFileAtomic writes data to path through a temp file in the same directory.
// An existing file is replaced only when force is set.
func WriteFileAtomic(path string, data []byte, force bool) (err error) {
	if !force {
		if _, statErr := os.Stat(path); statErr == nil {
			return clierr.Newf(clierr.CodeInvalidArgument, "%s already exists; use --force to overwrite", path)
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return clierr.Wrap(clierr.CodeInvalidArgument, "check output path", statErr)
		}
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return clierr.Wrap(clierr.CodeInvalidArgument, "create output file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return clierr.Wrap(clierr.CodeInternal, "write output file", err)
	}
	if err = tmp.Sync(); err != nil {
		return clierr.Wrap(clierr.CodeInternal, "sync output file", err)
	}
	if err = tmp.Close(); err != nil {
		return clierr.Wrap(clierr.CodeInternal, "close output file", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return clierr.Wrap(clierr.CodeInternal, "chmod output file", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return clierr.Wrap(clierr.CodeInternal, "replace output file", err)
	}
	return nil
}
