package results

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	"github.com/ggonzalez94/casper-cli/internal/rpc"
)

func hashOf(b byte, kind chain.TransactionHashKind) chain.TransactionHash {
	var d chain.Digest
	for i := range d {
		d[i] = b
	}
	return chain.TransactionHash{Kind: kind, Digest: d}
}

func v2Result(lanes map[string][]chain.TransactionHash) rpc.GetBlockResult {
	return rpc.GetBlockResult{
		APIVersion: "2.0.0",
		BlockWithSignatures: &rpc.BlockWithSignatures{Block: rpc.Block{V2: &rpc.BlockV2{
			Body: rpc.BlockV2Body{Transactions: lanes},
		}}},
	}
}

func TestListTransactionsBlockNotFound(t *testing.T) {
	got := ListTransactions(rpc.GetBlockResult{APIVersion: "2.0.1"})
	if got.APIVersion != "2.0.1" {
		t.Fatalf("api version not preserved: %s", got.APIVersion)
	}
	if got.TransactionHashes != nil || got.TransferHashes != nil {
		t.Fatalf("expected absent sequences, got %+v", got)
	}
	buf, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(buf), `"transaction_hashes":null`) {
		t.Fatalf("expected explicit null, got %s", buf)
	}
}

func TestListTransactionsLegacyBlockIsEmpty(t *testing.T) {
	got := ListTransactions(rpc.GetBlockResult{
		APIVersion:          "1.5.6",
		BlockWithSignatures: &rpc.BlockWithSignatures{Block: rpc.Block{V1: &rpc.BlockV1{Body: json.RawMessage(`{"deploy_hashes":["00"]}`)}}},
	})
	if got.TransactionHashes == nil || len(*got.TransactionHashes) != 0 {
		t.Fatalf("expected empty transaction hashes, got %+v", got.TransactionHashes)
	}
	if got.TransferHashes == nil || len(*got.TransferHashes) != 0 {
		t.Fatalf("expected empty transfer hashes, got %+v", got.TransferHashes)
	}
	buf, _ := json.Marshal(got)
	if !strings.Contains(string(buf), `"transfer_hashes":[]`) {
		t.Fatalf("expected explicit empty list, got %s", buf)
	}
}

func TestListTransactionsCurrentBlock(t *testing.T) {
	transfer := hashOf(1, chain.TransactionHashVersion1)
	call := hashOf(2, chain.TransactionHashVersion1)
	install := hashOf(3, chain.TransactionHashDeploy)
	result := v2Result(map[string][]chain.TransactionHash{
		"5": {call},
		"0": {transfer},
		"2": {install},
	})

	got := ListTransactions(result)
	if got.TransactionHashes == nil || len(*got.TransactionHashes) != 3 {
		t.Fatalf("expected 3 transaction hashes, got %+v", got.TransactionHashes)
	}
	if got.TransferHashes == nil || len(*got.TransferHashes) != 1 {
		t.Fatalf("expected 1 transfer hash, got %+v", got.TransferHashes)
	}
	want := []chain.TransactionHash{transfer, install, call}
	for i, h := range *got.TransactionHashes {
		if h != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], h)
		}
	}
	if (*got.TransferHashes)[0] != transfer {
		t.Fatal("transfer hash is not the mint transaction")
	}

	again := ListTransactions(result)
	a, _ := json.Marshal(got)
	b, _ := json.Marshal(again)
	if string(a) != string(b) {
		t.Fatal("normalizing the same block twice gave different output")
	}
}

func TestListTransactionsTransfersAreSubset(t *testing.T) {
	lanes := map[string][]chain.TransactionHash{
		"0": {hashOf(1, chain.TransactionHashVersion1), hashOf(2, chain.TransactionHashDeploy)},
		"1": {hashOf(3, chain.TransactionHashVersion1)},
		"3": {},
		"4": {hashOf(4, chain.TransactionHashVersion1), hashOf(5, chain.TransactionHashVersion1)},
	}
	got := ListTransactions(v2Result(lanes))
	total := 0
	for _, lane := range lanes {
		total += len(lane)
	}
	if len(*got.TransactionHashes) > total || len(*got.TransferHashes) > total {
		t.Fatalf("sequences longer than block: %d/%d vs %d", len(*got.TransactionHashes), len(*got.TransferHashes), total)
	}
	all := map[chain.TransactionHash]bool{}
	for _, h := range *got.TransactionHashes {
		all[h] = true
	}
	for _, h := range *got.TransferHashes {
		if !all[h] {
			t.Fatalf("transfer %s missing from transaction hashes", h)
		}
	}
}
