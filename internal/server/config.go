package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/bingoparty/internal/theme"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Themes []ThemeConfig  `hcl:"theme,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address        string        `hcl:"address,optional"`
	Port           int           `hcl:"port,optional"`
	LogLevel       string        `hcl:"log_level,optional"`
	AllowedOrigins []string      `hcl:"allowed_origins,optional"`
	Auth           *AuthSettings `hcl:"auth,block"`
}

// AuthSettings points at the external identity provider used to prefill
// display names. When the block is absent the exchange endpoint is a no-op.
type AuthSettings struct {
	TokenURL     string `hcl:"token_url"`
	UserInfoURL  string `hcl:"userinfo_url"`
	ClientID     string `hcl:"client_id"`
	ClientSecret string `hcl:"client_secret,optional"`
	RedirectURI  string `hcl:"redirect_uri,optional"`
}

// ThemeConfig defines an operator-supplied card theme
type ThemeConfig struct {
	ID    string   `hcl:"id,label"`
	Name  string   `hcl:"name"`
	Items []string `hcl:"items"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file is not an error; defaults apply.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	seen := make(map[string]bool)
	for _, th := range c.Themes {
		if th.ID == "" {
			return fmt.Errorf("theme with empty id")
		}
		if seen[th.ID] {
			return fmt.Errorf("duplicate theme id %q", th.ID)
		}
		seen[th.ID] = true
		if th.Name == "" {
			return fmt.Errorf("theme %s: display name required", th.ID)
		}
	}

	if a := c.Server.Auth; a != nil {
		if a.TokenURL == "" || a.UserInfoURL == "" {
			return fmt.Errorf("auth block requires token_url and userinfo_url")
		}
		if a.ClientID == "" {
			return fmt.Errorf("auth block requires client_id")
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// BuildCatalog merges builtin themes with the configured ones. Config
// themes may not reuse a builtin id.
func (c *ServerConfig) BuildCatalog() (*theme.Catalog, error) {
	themes := theme.Builtin()
	for _, tc := range c.Themes {
		themes = append(themes, &theme.Theme{ID: tc.ID, Name: tc.Name, Items: tc.Items})
	}
	return theme.NewCatalog(themes...)
}
