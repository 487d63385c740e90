package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAuthGitHubCmd_WritesTokenFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "creds", "github-token")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader("ghp_testtoken123\n"))
	cmd.SetArgs([]string{"auth", "github", "--token-file", tokenFile})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("auth github failed: %v", err)
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		t.Fatalf("read token file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "ghp_testtoken123" {
		t.Errorf("token file contents = %q", string(data))
	}

	info, err := os.Stat(tokenFile)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	if !strings.Contains(buf.String(), "Token written to") {
		t.Errorf("expected confirmation, got: %s", buf.String())
	}
}

func TestAuthGitHubCmd_RejectsEmptyToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "github-token")

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("\n"))
	cmd.SetArgs([]string{"auth", "github", "--token-file", tokenFile})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := os.Stat(tokenFile); !os.IsNotExist(err) {
		t.Error("token file should not be created for empty token")
	}
}
