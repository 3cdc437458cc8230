package chain

import (
	"encoding/json"
	"strings"
	"testing"
)

const (
	testEd25519Hex   = "01" + "aa0fbd2a62b0a8c5b6a4d8a59d1b06d3a3f2f3fdc0d0e6b6cfd1b9a2e0d1c2b3"
	testSecp256k1Hex = "02" + "03" + "1b84c5567b126440995d3ed5aaba0565d71e1834604819ff9c17f5e9d5dd078f"
	testHashHex      = "9c8b4b1c3b7a2e8f0c1d2e3f405162738495a6b7c8d9eafb0c1d2e3f40516273"
)

func TestParsePublicKeyHex(t *testing.T) {
	key, err := ParsePublicKeyHex(testEd25519Hex)
	if err != nil {
		t.Fatalf("parse ed25519 key: %v", err)
	}
	if key.Algorithm != AlgorithmEd25519 || len(key.Raw) != Ed25519PublicKeyLength {
		t.Fatalf("unexpected key: %+v", key)
	}
	if key.Hex() != testEd25519Hex {
		t.Fatalf("hex round trip mismatch: %s", key.Hex())
	}

	secp, err := ParsePublicKeyHex(strings.ToUpper(testSecp256k1Hex))
	if err != nil {
		t.Fatalf("parse secp256k1 key: %v", err)
	}
	if secp.Algorithm != AlgorithmSecp256k1 {
		t.Fatalf("unexpected algorithm: %s", secp.Algorithm)
	}

	for _, bad := range []string{"", "zz", "01abcd", "03" + testHashHex, "02" + "05" + testHashHex} {
		if _, err := ParsePublicKeyHex(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestAccountHashDerivation(t *testing.T) {
	key, err := ParsePublicKeyHex(testEd25519Hex)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	want := Blake2b256([]byte("ed25519"), []byte{0}, key.Raw)
	got := key.AccountHash()
	if [DigestLength]byte(got) != [DigestLength]byte(want) {
		t.Fatalf("unexpected account hash %s", got)
	}
	parsed, err := ParseAccountHash(got.String())
	if err != nil {
		t.Fatalf("parse formatted account hash: %v", err)
	}
	if parsed != got {
		t.Fatal("formatted account hash did not round trip")
	}
}

func TestParseInitiatorAddrFormats(t *testing.T) {
	fromKey, err := ParseInitiatorAddr(testEd25519Hex)
	if err != nil || fromKey.PublicKey == nil {
		t.Fatalf("expected public key initiator, got %+v err=%v", fromKey, err)
	}

	fromHash, err := ParseInitiatorAddr("account-hash-" + testHashHex)
	if err != nil || fromHash.AccountHash == nil {
		t.Fatalf("expected account hash initiator, got %+v err=%v", fromHash, err)
	}

	fromEntity, err := ParseInitiatorAddr("entity-account-" + testHashHex)
	if err != nil || fromEntity.AccountHash == nil {
		t.Fatalf("expected entity account initiator, got %+v err=%v", fromEntity, err)
	}
	if *fromEntity.AccountHash != *fromHash.AccountHash {
		t.Fatal("entity account and account hash forms should resolve to the same initiator")
	}

	for _, bad := range []string{"entity-contract-" + testHashHex, "account-hash-1234", "hello", "uref-" + testHashHex + "-007"} {
		if _, err := ParseInitiatorAddr(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestInitiatorAddrJSON(t *testing.T) {
	addr, err := ParseInitiatorAddr("account-hash-" + testHashHex)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	buf, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(buf) != `{"AccountHash":"account-hash-`+testHashHex+`"}` {
		t.Fatalf("unexpected json: %s", buf)
	}
	var back InitiatorAddr
	if err := json.Unmarshal(buf, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != addr.String() {
		t.Fatalf("round trip mismatch: %s vs %s", back, addr)
	}
	if err := json.Unmarshal([]byte(`{}`), &back); err == nil {
		t.Fatal("expected empty initiator object to be rejected")
	}
}

func TestTransactionHashJSON(t *testing.T) {
	d, err := ParseDigest(testHashHex)
	if err != nil {
		t.Fatalf("parse digest: %v", err)
	}
	for _, h := range []TransactionHash{DeployHash(d), TransactionV1Hash(d)} {
		buf, err := json.Marshal(h)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back TransactionHash
		if err := json.Unmarshal(buf, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", buf, err)
		}
		if back != h {
			t.Fatalf("round trip mismatch: %+v vs %+v", back, h)
		}
	}
	var bad TransactionHash
	if err := json.Unmarshal([]byte(`{"Version9":"`+testHashHex+`"}`), &bad); err == nil {
		t.Fatal("expected unknown variant to fail")
	}
}

func TestValidateURef(t *testing.T) {
	if err := ValidateURef("uref-" + testHashHex + "-007"); err != nil {
		t.Fatalf("expected valid uref: %v", err)
	}
	if err := ValidateURef("uref-" + testHashHex); err == nil {
		t.Fatal("expected uref without access rights to fail")
	}
}
