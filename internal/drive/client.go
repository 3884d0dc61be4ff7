// Package drive mirrors translated documents into a user's personal
// cloud-drive folder through a Microsoft-Graph-style API.
package drive

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PlumyCat/doctrans/internal/config"
)

const (
	defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"
	defaultLoginBaseURL = "https://login.microsoftonline.com"
	tokenScope          = "https://graph.microsoft.com/.default"

	// Metadata calls (token exchange, folder list/create) and content
	// uploads get separate bounded timeouts; these are the only
	// defense against hangs, there is no retry layer.
	metadataTimeout = 30 * time.Second
	uploadTimeout   = 60 * time.Second
)

// Client talks to the drive API. The token cache is the only mutable
// state; everything else is fixed at construction.
type Client struct {
	clientID     string
	clientSecret string
	folderName   string
	enabled      bool

	tokenURL string
	baseURL  string

	httpClient *http.Client

	// Concurrent refreshes are tolerated (each exchange yields an
	// independently valid token); the mutex only keeps the field
	// accesses racefree.
	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		clientID:     cfg.OneDriveClientID,
		clientSecret: cfg.OneDriveClientSecret,
		folderName:   cfg.OneDriveFolder,
		enabled:      cfg.DriveEnabled(),
		tokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", defaultLoginBaseURL, cfg.OneDriveTenantID),
		baseURL:      defaultGraphBaseURL,
		httpClient:   &http.Client{},
	}
}

// Enabled reports whether the mirror is configured and switched on.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}
