// Command chunk is a command-line client for the ChunkHub registry.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/and161185/chunkhub/internal/client"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const defaultServer = "http://localhost:8000"

// ---- token store ----

type tokenFile struct {
	Server      string    `json:"server"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "chunkhub")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "chunkhub")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(server, tok string, exp time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{Server: server, AccessToken: tok, ExpiresAt: exp})
}

// loadToken returns the saved token for server.
func loadToken(server string) (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errors.New("not logged in (run: chunk login)")
		}
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	if tf.Server != server {
		return "", fmt.Errorf("token belongs to %s (login required)", tf.Server)
	}
	return tf.AccessToken, nil
}

// tokenExpiry prefers the server-reported expiry and falls back to the
// unverified exp claim.
func tokenExpiry(tok string, reported time.Time) time.Time {
	if !reported.IsZero() {
		return reported
	}
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(15 * time.Minute)
}

// ---- app ----

type app struct {
	server  string
	timeout time.Duration
	asJSON  bool
	in      io.Reader
	out     io.Writer
}

func (a *app) client(authed bool) (*client.Client, error) {
	c, err := client.New(a.server, nil)
	if err != nil {
		return nil, err
	}
	if authed {
		tok, err := loadToken(a.server)
		if err != nil {
			return nil, err
		}
		c.Token = tok
	}
	return c, nil
}

func (a *app) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.timeout)
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "chunk",
		Short:         "ChunkHub modpack registry client",
		Version:       version + " (" + buildDate + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.out = cmd.OutOrStdout()
			a.in = cmd.InOrStdin()
		},
	}
	server := os.Getenv("CHUNKHUB_URL")
	if server == "" {
		server = defaultServer
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.server, "server", server, "API base URL ($CHUNKHUB_URL)")
	pf.DurationVar(&a.timeout, "timeout", 30*time.Second, "request timeout (uploads excluded)")
	pf.BoolVar(&a.asJSON, "json", false, "print raw JSON")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newWhoamiCmd(a),
		newSearchCmd(a),
		newInfoCmd(a),
		newCreateCmd(a),
		newPublishCmd(a),
		newReleaseCmd(a),
		newUploadCmd(a),
		newRmCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
