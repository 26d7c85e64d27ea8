package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "webdesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	quota, err := cfg.QuotaBytes()
	if err != nil || quota != 100*1024*1024 {
		t.Errorf("expected 100 MiB quota, got %d (%v)", quota, err)
	}
	if key, err := cfg.StateKey(); err != nil || key != nil {
		t.Errorf("expected no sealing key, got %v (%v)", key, err)
	}
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: "127.0.0.1:9000"
  lock_timeout: 2s
log:
  level: debug
database:
  driver: postgres
  dsn: "postgres://webdesk@localhost/webdesk"
interaction:
  store: consul
  key: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
home:
  backend: s3
  s3:
    endpoint: "localhost:9000"
    bucket: homes
auth:
  quota: "1 GB"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Listen != "127.0.0.1:9000" || cfg.Server.LockTimeout != 2*time.Second {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.RateLimit != 5 || cfg.Server.Burst != 10 {
		t.Errorf("expected untouched defaults, got %+v", cfg.Server)
	}
	if cfg.LogLevel().String() != "DEBUG" {
		t.Errorf("unexpected level %s", cfg.LogLevel())
	}
	if cfg.Database.Driver != "postgres" || cfg.Interaction.Consul.Prefix != "webdesk/interaction" {
		t.Errorf("unexpected config %+v %+v", cfg.Database, cfg.Interaction)
	}

	key, err := cfg.StateKey()
	if err != nil || len(key) != 32 || key[31] != 0x1f {
		t.Errorf("unexpected key %x (%v)", key, err)
	}
	if quota, _ := cfg.QuotaBytes(); quota != 1000*1000*1000 {
		t.Errorf("unexpected quota %d", quota)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "server:\n  listn: \":80\"\n")
	if _, err := Load(path); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("expected defaults, got %q", cfg.Server.Listen)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvListen:      ":7070",
		EnvLogLevel:    "warn",
		EnvDatabaseDSN: "/var/lib/webdesk/webdesk.db",
	}

	cfg := Default()
	cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	if cfg.Server.Listen != ":7070" || cfg.Log.Level != "warn" || cfg.Database.DSN != "/var/lib/webdesk/webdesk.db" {
		t.Errorf("unexpected overrides %+v %+v %+v", cfg.Server, cfg.Log, cfg.Database)
	}
}

func TestQuotaBytes_Overflow(t *testing.T) {
	cfg := Default()
	cfg.Auth.Quota = "10 EiB"

	if quota, err := cfg.QuotaBytes(); err == nil {
		t.Errorf("expected an overflowing quota to fail, got %d", quota)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "auth.quota") {
		t.Errorf("expected validation to report auth.quota, got %v", err)
	}
}

func TestValidate_ReportsEverything(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Database.Driver = "mysql"
	cfg.Interaction.Store = "redis"
	cfg.Interaction.Key = "abcd"
	cfg.Home.Backend = "s3"
	cfg.Auth.Quota = "lots"
	cfg.Auth.BcryptCost = 1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation to fail")
	}
	for _, want := range []string{"log.level", "database.driver", "interaction.store", "interaction.key", "home.s3", "auth.quota", "auth.bcrypt_cost"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}
