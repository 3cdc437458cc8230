package txn

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ggonzalez94/casper-cli/internal/args"
	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/keys"
)

const testTarget = "01aa0fbd2a62b0a8c5b6a4d8a59d1b06d3a3f2f3fdc0d0e6b6cfd1b9a2e0d1c2b3"

func testPayload(t *testing.T, initiator chain.InitiatorAddr) Payload {
	t.Helper()
	ts, err := chain.ParseTimestamp("2018-02-16T00:31:37Z")
	if err != nil {
		t.Fatalf("timestamp: %v", err)
	}
	ttl, err := chain.ParseTimeDiff("30min")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	body, err := args.BuildBody(args.BodyParams{Kind: args.BodyTransfer, Target: testTarget, Amount: "2500000000"})
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	return Payload{
		InitiatorAddr: initiator,
		Timestamp:     ts,
		TTL:           ttl,
		ChainName:     "casper-test",
		PricingMode:   PricingMode{Kind: PricingFixed, GasPriceTolerance: 1},
		Fields:        body,
	}
}

func TestTransactionSignAndParseRoundTrip(t *testing.T) {
	key, err := keys.Generate(chain.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	tx := NewTransaction(testPayload(t, chain.InitiatorFromPublicKey(key.PublicKey())))
	if !tx.RequiresSignature() {
		t.Fatal("new transaction should require a signature")
	}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := tx.Sign(key); err != nil {
		t.Fatalf("sign twice: %v", err)
	}
	if len(tx.Approvals) != 1 || tx.RequiresSignature() {
		t.Fatalf("expected exactly one approval, got %d", len(tx.Approvals))
	}

	buf, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParseTransaction(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Hash != tx.Hash || len(back.Approvals) != 1 {
		t.Fatalf("transaction changed across round trip: %+v", back)
	}

	start, end := back.Validity()
	if end.Time().Sub(start.Time()).Minutes() != 30 {
		t.Fatalf("unexpected validity window %s..%s", start, end)
	}
}

func TestParseTransactionRejectsTampering(t *testing.T) {
	tx := NewTransaction(testPayload(t, mustInitiator(t)))
	buf, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	tampered := strings.Replace(string(buf), `"casper-test"`, `"casper"`, 1)
	_, err = ParseTransaction([]byte(tampered))
	if clierr.CodeOf(err) != clierr.CodeInvalidArgument {
		t.Fatalf("expected invalid argument for tampered payload, got %v", err)
	}
}

func TestTransactionHashIsDeterministic(t *testing.T) {
	a := NewTransaction(testPayload(t, mustInitiator(t)))
	b := NewTransaction(testPayload(t, mustInitiator(t)))
	if a.Hash != b.Hash {
		t.Fatalf("expected identical hashes, got %s and %s", a.Hash, b.Hash)
	}
	if a.TransactionHash().Kind != chain.TransactionHashVersion1 {
		t.Fatalf("unexpected hash kind %s", a.TransactionHash().Kind)
	}
}

func TestDeploySignAndParseRoundTrip(t *testing.T) {
	key, err := keys.Generate(chain.AlgorithmSecp256k1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	payment, err := args.BuildPayment(args.PaymentParams{Amount: "100000000"})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	session, err := args.BuildSession(args.SessionParams{Transfer: true, TransferTarget: testTarget, TransferAmount: "2500000000", TransferID: "1"})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	ts, _ := chain.ParseTimestamp("2018-02-16T00:31:37Z")
	deploy := NewDeploy(DeployHeader{
		Account:   key.PublicKey(),
		Timestamp: ts,
		TTL:       chain.TimeDiff(3_600_000),
		GasPrice:  1,
		ChainName: "casper-test",
	}, payment, session)
	if err := deploy.Sign(key); err != nil {
		t.Fatalf("sign: %v", err)
	}

	buf, err := json.MarshalIndent(deploy, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ParseDeploy(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.Hash != deploy.Hash || back.TransactionHash().Kind != chain.TransactionHashDeploy {
		t.Fatalf("deploy changed across round trip")
	}

	back.Approvals[0].Signature.Raw[0] ^= 0xff
	if err := back.Verify(); err == nil {
		t.Fatal("expected corrupted approval to fail verification")
	}
}

func mustInitiator(t *testing.T) chain.InitiatorAddr {
	t.Helper()
	addr, err := chain.ParseInitiatorAddr(testTarget)
	if err != nil {
		t.Fatalf("initiator: %v", err)
	}
	return addr
}
