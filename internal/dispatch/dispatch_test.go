package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/builder"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/journal"
	"github.com/ggonzalez94/casper-cli/internal/rpc"
	"github.com/ggonzalez94/casper-cli/internal/txn"
)

const testInitiator = "01aa0fbd2a62b0a8c5b6a4d8a59d1b06d3a3f2f3fdc0d0e6b6cfd1b9a2e0d1c2b3"

type fakeSubmitter struct {
	calls []string
	err   error
}

func (f *fakeSubmitter) respond(method string) (*rpc.Response, error) {
	f.calls = append(f.calls, method)
	if f.err != nil {
		return nil, f.err
	}
	return &rpc.Response{JSONRPC: "2.0", ID: json.RawMessage(`1`), Result: json.RawMessage(`{"api_version":"2.0.0"}`)}, nil
}

func (f *fakeSubmitter) PutTransaction(context.Context, rpc.ID, *txn.Transaction) (*rpc.Response, error) {
	return f.respond(rpc.MethodPutTransaction)
}

func (f *fakeSubmitter) SpeculativeExecTransaction(context.Context, rpc.ID, *txn.Transaction) (*rpc.Response, error) {
	return f.respond(rpc.MethodSpeculativeExecTxn)
}

func (f *fakeSubmitter) PutDeploy(context.Context, rpc.ID, *txn.Deploy) (*rpc.Response, error) {
	return f.respond(rpc.MethodPutDeploy)
}

func (f *fakeSubmitter) SpeculativeExecDeploy(context.Context, rpc.ID, *txn.Deploy) (*rpc.Response, error) {
	return f.respond(rpc.MethodSpeculativeExec)
}

type fakeRecorder struct {
	entries []journal.Entry
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, e journal.Entry) error {
	f.entries = append(f.entries, e)
	return f.err
}

func testBuilder() *builder.Builder {
	return builder.New(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }, nil)
}

func testTransaction(t *testing.T) *txn.Transaction {
	t.Helper()
	body, err := args.BuildBody(args.BodyParams{Kind: args.BodyTransfer, Target: testInitiator, Amount: "2500000000"})
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	tx, err := testBuilder().MakeTransaction(builder.TransactionParams{
		Timestamp:     "2018-02-16T00:31:37Z",
		TTL:           "1day",
		ChainName:     "casper-test",
		InitiatorAddr: testInitiator,
	}, body)
	if err != nil {
		t.Fatalf("make transaction: %v", err)
	}
	return tx
}

func testDeploy(t *testing.T) *txn.Deploy {
	t.Helper()
	payment, err := args.BuildPayment(args.PaymentParams{Amount: "100000000"})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	session, err := args.BuildSession(args.SessionParams{Name: "counter", EntryPoint: "inc"})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	d, err := testBuilder().MakeDeploy(builder.DeployParams{TTL: "1day", ChainName: "casper-test", SessionAccount: testInitiator}, session, payment)
	if err != nil {
		t.Fatalf("make deploy: %v", err)
	}
	return d
}

func TestSpeculativeSubmitMakesOneSpeculativeCall(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{}
	d := New(sub, nil, nil).WithJournal(rec, "http://node:7777")

	outcome, err := d.Dispatch(context.Background(), testTransaction(t), Target{Sink: SubmitSink(true), RPCID: rpc.NumberID(1)})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(sub.calls) != 1 || sub.calls[0] != rpc.MethodSpeculativeExecTxn {
		t.Fatalf("expected one speculative call, got %v", sub.calls)
	}
	if outcome.Sink != SpeculativeSubmit || outcome.Response == nil || outcome.Method != rpc.MethodSpeculativeExecTxn {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(rec.entries) != 0 {
		t.Fatal("speculative submissions must not be journaled")
	}

	sub.calls = nil
	if _, err := d.Dispatch(context.Background(), testDeploy(t), Target{Sink: SpeculativeSubmit, RPCID: rpc.NumberID(2)}); err != nil {
		t.Fatalf("dispatch deploy: %v", err)
	}
	if len(sub.calls) != 1 || sub.calls[0] != rpc.MethodSpeculativeExec {
		t.Fatalf("expected one speculative deploy call, got %v", sub.calls)
	}
}

func TestNetworkSubmitRecordsJournal(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &fakeRecorder{err: errors.New("disk full")}
	d := New(sub, nil, nil).WithJournal(rec, "http://node:7777")
	tx := testTransaction(t)

	outcome, err := d.Dispatch(context.Background(), tx, Target{Sink: SubmitSink(false), RPCID: rpc.ParseID("abc")})
	if err != nil {
		t.Fatalf("journal failure must not fail dispatch: %v", err)
	}
	if len(sub.calls) != 1 || sub.calls[0] != rpc.MethodPutTransaction {
		t.Fatalf("expected one put call, got %v", sub.calls)
	}
	if outcome.RPCID != "abc" {
		t.Fatalf("unexpected rpc id %q", outcome.RPCID)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("expected one journal entry, got %d", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.Hash != tx.TransactionHash().String() || entry.Kind != "transaction" || entry.NodeAddress != "http://node:7777" {
		t.Fatalf("unexpected journal entry %+v", entry)
	}
}

func TestNetworkSubmitSurfacesErrorsWithoutRetry(t *testing.T) {
	sub := &fakeSubmitter{err: clierr.New(clierr.CodeUnavailable, "connection refused")}
	rec := &fakeRecorder{}
	d := New(sub, nil, nil).WithJournal(rec, "http://node:7777")

	_, err := d.Dispatch(context.Background(), testDeploy(t), Target{Sink: NetworkSubmit, RPCID: rpc.NumberID(1)})
	if clierr.CodeOf(err) != clierr.CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if len(sub.calls) != 1 || sub.calls[0] != rpc.MethodPutDeploy {
		t.Fatalf("expected exactly one call, got %v", sub.calls)
	}
	if len(rec.entries) != 0 {
		t.Fatal("failed submissions must not be journaled")
	}
}

func TestLocalWriteToStdout(t *testing.T) {
	sub := &fakeSubmitter{}
	var stdout bytes.Buffer
	tx := testTransaction(t)

	outcome, err := New(sub, &stdout, nil).Dispatch(context.Background(), tx, Target{Sink: LocalWrite})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome.Message != "" || outcome.Path != "" {
		t.Fatalf("stdout write should report an empty message, got %+v", outcome)
	}
	if len(sub.calls) != 0 {
		t.Fatal("local write must not contact the node")
	}
	back, err := txn.ParseTransaction(stdout.Bytes())
	if err != nil {
		t.Fatalf("parse written transaction: %v", err)
	}
	if back.Hash != tx.Hash {
		t.Fatal("written transaction hash differs")
	}
}

func TestLocalWriteToFileRespectsForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.json")
	d := New(nil, nil, nil)
	deploy := testDeploy(t)

	outcome, err := d.Dispatch(context.Background(), deploy, Target{Sink: LocalWrite, OutputPath: path})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if outcome.Path != path || !strings.Contains(outcome.Message, path) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if _, err := txn.ParseDeploy(data); err != nil {
		t.Fatalf("parse written deploy: %v", err)
	}

	_, err = d.Dispatch(context.Background(), deploy, Target{Sink: LocalWrite, OutputPath: path})
	if clierr.CodeOf(err) != clierr.CodeInvalidArgument {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}
	if _, err := d.Dispatch(context.Background(), deploy, Target{Sink: LocalWrite, OutputPath: path, Force: true}); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	if err := WriteFileAtomic(path, []byte("{}"), false); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("no file should be written on failure")
	}
}

func TestMethod(t *testing.T) {
	cases := []struct {
		kind txn.Kind
		sink Sink
		want string
	}{
		{txn.KindTransaction, NetworkSubmit, rpc.MethodPutTransaction},
		{txn.KindTransaction, SpeculativeSubmit, rpc.MethodSpeculativeExecTxn},
		{txn.KindDeploy, NetworkSubmit, rpc.MethodPutDeploy},
		{txn.KindDeploy, SpeculativeSubmit, rpc.MethodSpeculativeExec},
		{txn.KindDeploy, LocalWrite, ""},
	}
	for _, c := range cases {
		if got := Method(c.kind, c.sink); got != c.want {
			t.Fatalf("Method(%s, %s) = %q, want %q", c.kind, c.sink, got, c.want)
		}
	}
}
