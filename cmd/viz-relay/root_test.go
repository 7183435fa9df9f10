package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := `
server:
  port: 9090
connections:
  heartbeat_interval: 2s
bridge:
  driver: local
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, "check-config", "--config", path)
	if err != nil {
		t.Fatalf("check-config failed: %v", err)
	}
	for _, want := range []string{"config ok", "0.0.0.0:9090", "2s", "local"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := execute(t, "check-config", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "server.port") {
		t.Errorf("err = %v, want server.port error", err)
	}
}

func TestCheckConfig_Defaults(t *testing.T) {
	out, err := execute(t, "check-config")
	if err != nil {
		t.Fatalf("check-config failed: %v", err)
	}
	if !strings.Contains(out, "nats") {
		t.Errorf("default bridge driver missing from output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("version printed nothing")
	}
}

func TestServe_DemoRequiresLocal(t *testing.T) {
	_, err := execute(t, "serve", "--driver", "nats", "--demo")
	if err == nil || !strings.Contains(err.Error(), "--demo") {
		t.Errorf("err = %v, want --demo error", err)
	}
}
