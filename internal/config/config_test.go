package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	configPath := writeConfig(t, "node_address: http://file:7777\nchain_name: casper-test\nretries: 1\ntimeout: 5s\n")

	t.Setenv("CASPER_NODE_ADDRESS", "http://env:7777")
	t.Setenv("CASPER_TIMEOUT", "12s")
	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: 5})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.NodeAddress != "http://env:7777" {
		t.Fatalf("expected env to beat file, got %s", settings.NodeAddress)
	}
	if settings.ChainName != "casper-test" {
		t.Fatalf("expected chain name from file, got %q", settings.ChainName)
	}
	if settings.Timeout != 12*time.Second {
		t.Fatalf("expected timeout from env, got %s", settings.Timeout)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}

	settings, err = Load(GlobalFlags{ConfigPath: configPath, Retries: -1, Timeout: "2s"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Retries != 1 || settings.Timeout != 2*time.Second {
		t.Fatalf("unexpected retries/timeout %d/%s", settings.Retries, settings.Timeout)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	settings, err := Load(GlobalFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"), Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.NodeAddress != DefaultNodeAddress || settings.Timeout != DefaultTimeout {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if settings.Retries != 0 || settings.Verbosity != 0 || settings.OutputMode != "json" {
		t.Fatalf("unexpected defaults %+v", settings)
	}
	if !settings.CacheEnabled || !settings.JournalEnabled {
		t.Fatal("expected cache and journal enabled by default")
	}
	if filepath.Base(filepath.Dir(settings.JournalPath)) != "casper-client" {
		t.Fatalf("unexpected journal path %s", settings.JournalPath)
	}
}

func TestLoadEnvToggles(t *testing.T) {
	t.Setenv("CASPER_NO_CACHE", "true")
	t.Setenv("CASPER_NO_JOURNAL", "1")
	t.Setenv("CASPER_VERBOSE", "2")
	t.Setenv("CASPER_ENVELOPE", "true")
	settings, err := Load(GlobalFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"), Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.CacheEnabled || settings.JournalEnabled {
		t.Fatalf("expected cache and journal disabled, got %+v", settings)
	}
	if settings.Verbosity != 2 || !settings.Envelope {
		t.Fatalf("unexpected verbosity/envelope %+v", settings)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("CASPER_RETRIES", "many")
	if _, err := Load(GlobalFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"), Retries: -1}); err == nil {
		t.Fatal("expected error for non-numeric CASPER_RETRIES")
	}
}

func TestLoadRejectsBadTimeouts(t *testing.T) {
	bad := writeConfig(t, "timeout: soon\n")
	if _, err := Load(GlobalFlags{ConfigPath: bad, Retries: -1}); err == nil {
		t.Fatal("expected error for bad config timeout")
	}
	if _, err := Load(GlobalFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"), Retries: -1, Timeout: "later"}); err == nil {
		t.Fatal("expected error for bad --timeout")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" get-block, list-* ,,")
	if len(got) != 2 || got[0] != "get-block" || got[1] != "list-*" {
		t.Fatalf("unexpected list %v", got)
	}
}
