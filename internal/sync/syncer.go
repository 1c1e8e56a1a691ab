// Package sync pulls application deployment addresses from a remote
// deployments manifest into the local config.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
)

// maxManifestSize caps how much of a manifest response is read.
const maxManifestSize = 1 << 20

var (
	ErrAppNotFound     = errors.New("application not in manifest")
	ErrNoDeployment    = errors.New("application has no deployment on this chain")
	ErrAmbiguousApp    = errors.New("manifest lists several applications, name one")
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Manifest is the structure of a deployments.json manifest: application
// name, then chain name or chain id, then the deployment.
type Manifest struct {
	Applications map[string]map[string]Deployment `json:"applications"`
}

// Deployment is one application deployment on one chain.
type Deployment struct {
	Address  string `json:"address" yaml:"address"`
	InputBox string `json:"input_box,omitempty" yaml:"input_box,omitempty"`
	NodeURL  string `json:"node_url,omitempty" yaml:"node_url,omitempty"`
}

// Result describes what a sync applied.
type Result struct {
	Application string     `json:"application" yaml:"application"`
	Chain       string     `json:"chain" yaml:"chain"`
	Deployment  Deployment `json:"deployment" yaml:"deployment"`
}

// Syncer fetches manifests over a retrying HTTP client.
type Syncer struct {
	client *http.Client
	log    *zap.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithHTTPClient replaces the retrying client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Syncer) { s.client = c }
}

// WithLogger sets the logger used for retries and progress.
func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

// New creates a Syncer.
func New(opts ...Option) *Syncer {
	s := &Syncer{log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 2
		rc.HTTPClient.Timeout = 15 * time.Second
		rc.Logger = nil
		s.client = rc.StandardClient()
	}
	return s
}

// Fetch downloads and parses the manifest at url.
func (s *Syncer) Fetch(ctx context.Context, url string) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching manifest: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	s.log.Debug("manifest fetched", zap.String("url", url), zap.Int("applications", len(m.Applications)))
	return &m, nil
}

// Lookup picks the deployment of app on the chain. An empty app name is
// accepted when the manifest holds exactly one application. Chains are
// matched by name first, then by decimal chain id.
func (m *Manifest) Lookup(app, chainName string, chainID int64) (Result, error) {
	if app == "" {
		names := m.Names()
		if len(names) != 1 {
			return Result{}, fmt.Errorf("%w: %s", ErrAmbiguousApp, strings.Join(names, ", "))
		}
		app = names[0]
	}
	chains, ok := m.Applications[app]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrAppNotFound, app)
	}

	key := strings.ToLower(chainName)
	d, ok := chains[key]
	if !ok {
		key = strconv.FormatInt(chainID, 10)
		d, ok = chains[key]
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: %s on %s (%d)", ErrNoDeployment, app, chainName, chainID)
	}
	if err := d.validate(); err != nil {
		return Result{}, err
	}
	return Result{Application: app, Chain: key, Deployment: d}, nil
}

// Names lists the manifest's applications in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Applications))
	for n := range m.Applications {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (d Deployment) validate() error {
	if !common.IsHexAddress(d.Address) {
		return fmt.Errorf("%w: bad application address %q", ErrInvalidManifest, d.Address)
	}
	if d.InputBox != "" && !common.IsHexAddress(d.InputBox) {
		return fmt.Errorf("%w: bad input box address %q", ErrInvalidManifest, d.InputBox)
	}
	if d.NodeURL != "" {
		if err := config.ValidateNodeURL(d.NodeURL); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
	}
	return nil
}

// Apply writes the deployment into c. Empty optional fields keep the
// current values.
func (r Result) Apply(c *config.Config) {
	c.AppAddress = common.HexToAddress(r.Deployment.Address).Hex()
	if r.Deployment.InputBox != "" {
		c.InputBoxAddress = common.HexToAddress(r.Deployment.InputBox).Hex()
	}
	if r.Deployment.NodeURL != "" {
		c.NodeURL = r.Deployment.NodeURL
	}
}
