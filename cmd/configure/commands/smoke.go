package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/services/oidc"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

type smokeOptions struct {
	issuer       string
	apiURL       string
	clientID     string
	clientSecret string
	scopes       []string
}

// smokeQuest is the part of an evaluated quest the smoke check prints.
type smokeQuest struct {
	QuestKey string `json:"questKey"`
}

type smokeResult struct {
	Day    string       `json:"day"`
	Algo   string       `json:"algo"`
	Quests []smokeQuest `json:"quests"`
}

// NewSmokeCmd creates the end-to-end smoke check command.
func NewSmokeCmd() *cobra.Command {
	var opts smokeOptions
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check the identity provider and, with client credentials, the quests endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.issuer == "" {
				opts.issuer = os.Getenv("OIDC_ISSUER")
			}
			if opts.issuer == "" {
				return fmt.Errorf("--issuer or OIDC_ISSUER is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			return runSmoke(ctx, cmd.OutOrStdout(), opts, &http.Client{Timeout: 10 * time.Second})
		},
	}
	cmd.Flags().StringVar(&opts.issuer, "issuer", "", "OIDC issuer URL (defaults to OIDC_ISSUER)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "http://localhost:8080", "Base URL of the quests API")
	cmd.Flags().StringVar(&opts.clientID, "client-id", "", "Client ID for the client credentials grant")
	cmd.Flags().StringVar(&opts.clientSecret, "client-secret", "", "Client secret for the client credentials grant")
	cmd.Flags().StringSliceVar(&opts.scopes, "scope", nil, "Scopes to request (repeatable)")
	return cmd
}

func runSmoke(ctx context.Context, out io.Writer, opts smokeOptions, httpClient *http.Client) error {
	fmt.Fprintf(out, "Checking discovery for %s\n", opts.issuer)
	discovery, err := oidc.Discover(ctx, httpClient, opts.issuer)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Discovery document is valid")

	keys, err := oidc.NewJWKSManager(httpClient).Refresh(ctx, discovery.JWKSURI)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	fmt.Fprintf(out, "✓ JWKS has %d key(s)\n", keys.Len())

	if opts.clientID == "" {
		fmt.Fprintln(out, "No client credentials given; skipping the API call.")
		return nil
	}
	if discovery.TokenEndpoint == "" {
		return fmt.Errorf("discovery document has no token_endpoint")
	}

	// oauth2 reads its transport from the context.
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	client := oidc.NewClient(discovery.TokenEndpoint, opts.clientID, opts.clientSecret, opts.scopes...)
	if _, err := client.Token(tokenCtx); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Obtained a client credentials token")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(opts.apiURL, "/")+"/api/v1/quests/today", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.HTTPClient(tokenCtx).Do(req)
	if err != nil {
		return fmt.Errorf("call quests endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read quests response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quests endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result smokeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode quests response: %w", err)
	}
	keysOut := make([]string, len(result.Quests))
	for i, q := range result.Quests {
		keysOut[i] = q.QuestKey
	}
	fmt.Fprintf(out, "✓ %s %s: %s\n", result.Day, result.Algo, strings.Join(keysOut, ", "))
	return nil
}
