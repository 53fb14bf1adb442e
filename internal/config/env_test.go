package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestParseEnvFile(t *testing.T) {
	path := writeEnvFile(t, `
# Provider credentials
OPENAI_API_KEY=sk-test-123
STUDYCHAT_MODEL="gpt-4o-mini"
STUDYCHAT_EXPORT_DIR='my exports'

EMPTY=
`)

	env, err := ParseEnvFile(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"OPENAI_API_KEY", "sk-test-123"},
		{"STUDYCHAT_MODEL", "gpt-4o-mini"},
		{"STUDYCHAT_EXPORT_DIR", "my exports"},
		{"EMPTY", ""},
	}
	for _, tt := range tests {
		if got := env[tt.key]; got != tt.want {
			t.Errorf("env[%q] = %q, want %q", tt.key, got, tt.want)
		}
	}
	if len(env) != 4 {
		t.Errorf("len(env) = %d, want 4", len(env))
	}
}

func TestParseEnvFileMissing(t *testing.T) {
	env, err := ParseEnvFile(filepath.Join(t.TempDir(), "nope.env"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(env) != 0 {
		t.Errorf("len(env) = %d, want 0", len(env))
	}
}

func TestParseEnvFileMalformed(t *testing.T) {
	path := writeEnvFile(t, "NOT A VALID LINE\n")
	if _, err := ParseEnvFile(path); err == nil {
		t.Fatal("expected error for line without '='")
	}
}

func TestApplyEnvFileDoesNotOverride(t *testing.T) {
	t.Setenv("STUDYCHAT_TEST_EXISTING", "from-process")

	path := writeEnvFile(t, "STUDYCHAT_TEST_EXISTING=from-file\nSTUDYCHAT_TEST_FRESH=hello\n")
	t.Cleanup(func() { _ = os.Unsetenv("STUDYCHAT_TEST_FRESH") })

	applied, err := ApplyEnvFile(path)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	if got := os.Getenv("STUDYCHAT_TEST_EXISTING"); got != "from-process" {
		t.Errorf("existing var overridden: got %q", got)
	}
	if got := os.Getenv("STUDYCHAT_TEST_FRESH"); got != "hello" {
		t.Errorf("fresh var = %q, want %q", got, "hello")
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("STUDYCHAT_TEST_SET", "value")
	if got := Getenv("STUDYCHAT_TEST_SET", "fallback"); got != "value" {
		t.Errorf("Getenv(set) = %q", got)
	}
	if got := Getenv("STUDYCHAT_TEST_UNSET_XYZ", "fallback"); got != "fallback" {
		t.Errorf("Getenv(unset) = %q", got)
	}
}
