package tailscale

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Arvo-AI/aurora/internal/cloudexec"
)

// AdminAPIBase is the Tailscale admin REST API root. Overridable per
// AdminClient instance for testing against a fake server.
const AdminAPIBase = "https://api.tailscale.com/api/v2"

// AdminClient translates the cloud_exec tailscale verbs (device,
// auth-key, acl, dns, routes, status, settings) into calls against the
// Tailscale admin REST API, satisfying cloudexec.TailscaleClient. This
// is distinct from Client in tailscale.go, which shells out to the
// local tailscale CLI binary for node-local status/serve/funnel
// operations; AdminClient never touches the local machine.
type AdminClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewAdminClient creates an AdminClient authenticating with apiKey.
func NewAdminClient(apiKey string) *AdminClient {
	return &AdminClient{
		APIKey:     apiKey,
		BaseURL:    AdminAPIBase,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// verbRoute describes how to turn a verb + positional args into an
// admin API request.
type verbRoute struct {
	method string
	path   func(tailnet string, args []string) string
}

var adminVerbRoutes = map[string]verbRoute{
	"device": {
		method: http.MethodGet,
		path: func(tailnet string, args []string) string {
			if len(args) > 0 {
				return fmt.Sprintf("/device/%s", args[0])
			}
			return fmt.Sprintf("/tailnet/%s/devices", tailnet)
		},
	},
	"auth-key": {
		method: http.MethodPost,
		path: func(tailnet string, args []string) string {
			return fmt.Sprintf("/tailnet/%s/keys", tailnet)
		},
	},
	"acl": {
		method: http.MethodGet,
		path: func(tailnet string, args []string) string {
			return fmt.Sprintf("/tailnet/%s/acl", tailnet)
		},
	},
	"dns": {
		method: http.MethodGet,
		path: func(tailnet string, args []string) string {
			return fmt.Sprintf("/tailnet/%s/dns/nameservers", tailnet)
		},
	},
	"routes": {
		method: http.MethodGet,
		path: func(tailnet string, args []string) string {
			if len(args) > 0 {
				return fmt.Sprintf("/device/%s/routes", args[0])
			}
			return fmt.Sprintf("/tailnet/%s/devices", tailnet)
		},
	},
	"status": {
		method: http.MethodGet,
		path: func(tailnet string, args []string) string {
			return fmt.Sprintf("/tailnet/%s/devices", tailnet)
		},
	},
	"settings": {
		method: http.MethodGet,
		path: func(tailnet string, args []string) string {
			return fmt.Sprintf("/tailnet/%s/settings", tailnet)
		},
	},
}

// Dispatch implements cloudexec.TailscaleClient.
func (c *AdminClient) Dispatch(ctx context.Context, tailnet, verb string, args []string) (cloudexec.Envelope, error) {
	route, ok := adminVerbRoutes[verb]
	if !ok {
		return cloudexec.Envelope{}, fmt.Errorf("tailscale: unsupported admin verb %q", verb)
	}

	url := c.BaseURL + route.path(tailnet, args)
	var body io.Reader
	if route.method == http.MethodPost && len(args) > 0 {
		body = bytes.NewBufferString(args[len(args)-1])
	}

	req, err := http.NewRequestWithContext(ctx, route.method, url, body)
	if err != nil {
		return cloudexec.Envelope{}, fmt.Errorf("tailscale: build request: %w", err)
	}
	req.SetBasicAuth(c.APIKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return cloudexec.Envelope{}, fmt.Errorf("tailscale: admin API request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return cloudexec.Envelope{}, fmt.Errorf("tailscale: read admin API response: %w", err)
	}

	env := cloudexec.Envelope{
		Provider: "tailscale",
		Command:  verb,
		Stdout:   string(raw),
	}
	if resp.StatusCode >= 400 {
		env.IsError = true
		env.ReturnCode = resp.StatusCode
		env.ErrorMessage = fmt.Sprintf("tailscale admin API: %s", resp.Status)
		return env, nil
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "  ") == nil {
		env.Stdout = pretty.String()
	}
	return env, nil
}
