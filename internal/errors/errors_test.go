package errors

import (
	"fmt"
	"testing"
)

func TestExitCodeFollowsWrappedCode(t *testing.T) {
	base := Wrap(CodeRejected, "put transaction", fmt.Errorf("invalid approval"))
	wrapped := fmt.Errorf("dispatch: %w", base)
	if got := ExitCode(wrapped); got != int(CodeRejected) {
		t.Fatalf("expected exit %d, got %d", CodeRejected, got)
	}
	if ExitCode(nil) != 0 {
		t.Fatal("expected zero exit code for nil error")
	}
	if ExitCode(fmt.Errorf("plain")) != int(CodeInternal) {
		t.Fatal("expected untyped errors to map to internal")
	}
}

func TestNetworkKindsAreDistinguishable(t *testing.T) {
	kinds := []Code{CodeUnavailable, CodeMalformedResponse, CodeRejected}
	seen := map[string]struct{}{}
	for _, code := range kinds {
		if !code.IsNetwork() {
			t.Fatalf("expected %d to be a network code", code)
		}
		seen[code.Type()] = struct{}{}
	}
	if len(seen) != len(kinds) {
		t.Fatalf("expected distinct type strings, got %v", seen)
	}
	if CodeInvalidArgument.IsNetwork() {
		t.Fatal("invalid argument must not be a network code")
	}
}
