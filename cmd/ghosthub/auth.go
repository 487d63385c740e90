package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Credential management commands",
	}

	cmd.AddCommand(newAuthGitHubCmd())
	return cmd
}

func newAuthGitHubCmd() *cobra.Command {
	var tokenFile string

	cmd := &cobra.Command{
		Use:   "github",
		Short: "Store a GitHub token",
		Long: `Prompts for a GitHub personal access token and writes it to a file
readable only by the current user. Point github.token_file at this
path in your config to use it for publishing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthGitHub(cmd, tokenFile)
		},
	}

	cmd.Flags().StringVar(&tokenFile, "token-file", defaultTokenFile(), "where to write the token")
	return cmd
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ghosthub-github-token"
	}
	return filepath.Join(home, ".ghosthub", "github-token")
}

func runAuthGitHub(cmd *cobra.Command, tokenFile string) error {
	out := cmd.OutOrStdout()

	token, err := readToken(cmd)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("empty token")
	}

	if dir := filepath.Dir(tokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(tokenFile, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}

	fmt.Fprintf(out, "Token written to %s\n", tokenFile)
	fmt.Fprintf(out, "Set github.token_file: %s in your config to use it.\n", tokenFile)
	return nil
}

// readToken prompts without echo when stdin is a terminal; otherwise it
// reads a single line, which keeps the command scriptable.
func readToken(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, "GitHub token: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}
