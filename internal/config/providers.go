package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider describes how to reach one mail provider's IMAP endpoint.
type Provider struct {
	Name     string
	IMAPHost string
	IMAPPort int
	SSL      bool
}

// Addr returns the host:port dial address for the provider.
func (p Provider) Addr() string {
	return fmt.Sprintf("%s:%d", p.IMAPHost, p.IMAPPort)
}

// UnknownProviderError reports a provider name that is not in the registry.
type UnknownProviderError struct {
	Provider  string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown provider %q and no providers file found", e.Provider)
	}
	return fmt.Sprintf("unknown provider %q (available: %s)", e.Provider, strings.Join(e.Available, ", "))
}

// builtinProviders are used when no providers file exists on disk.
var builtinProviders = map[string]Provider{
	"gmx":     {Name: "GMX Mail", IMAPHost: "imap.gmx.net", IMAPPort: 993, SSL: true},
	"gmail":   {Name: "Gmail", IMAPHost: "imap.gmail.com", IMAPPort: 993, SSL: true},
	"outlook": {Name: "Outlook", IMAPHost: "outlook.office365.com", IMAPPort: 993, SSL: true},
}

// yamlProvider mirrors one providers file entry. Pointers distinguish omitted
// fields from zero values so defaults can be applied.
type yamlProvider struct {
	Name     string `yaml:"name"`
	IMAPHost string `yaml:"imap_host"`
	IMAPPort *int   `yaml:"imap_port"`
	SSL      *bool  `yaml:"ssl"`
}

type providersFile struct {
	Providers map[string]yamlProvider `yaml:"providers"`
	Default   string                  `yaml:"default"`
}

// providerSearchPaths returns the default locations for the providers file,
// most specific first.
func providerSearchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "mailarc", "providers.yaml"))
	}
	paths = append(paths, "/etc/mailarc/providers.yaml")
	return paths
}

func findProvidersFile(explicit string) string {
	paths := providerSearchPaths()
	if explicit != "" {
		paths = []string{explicit}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func readProvidersFile(path string) (*providersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}
	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse providers file %s: %w", path, err)
	}
	return &file, nil
}

// LoadProvider resolves the IMAP settings for the named provider. When
// configPath is empty the default locations are searched; when no file exists
// at all, the built-in registry is consulted. The "custom" provider honors
// IMAP_HOST, IMAP_PORT and IMAP_SSL environment overrides.
func LoadProvider(name, configPath string) (Provider, error) {
	path := findProvidersFile(configPath)
	if path == "" {
		if p, ok := builtinProviders[name]; ok {
			return p, nil
		}
		return Provider{}, &UnknownProviderError{Provider: name}
	}

	file, err := readProvidersFile(path)
	if err != nil {
		return Provider{}, err
	}

	entry, ok := file.Providers[name]
	if !ok {
		available := make([]string, 0, len(file.Providers))
		for n := range file.Providers {
			available = append(available, n)
		}
		sort.Strings(available)
		return Provider{}, &UnknownProviderError{Provider: name, Available: available}
	}

	p := Provider{
		Name:     entry.Name,
		IMAPHost: entry.IMAPHost,
		IMAPPort: 993,
		SSL:      true,
	}
	if p.Name == "" {
		p.Name = name
	}
	if entry.IMAPPort != nil {
		p.IMAPPort = *entry.IMAPPort
	}
	if entry.SSL != nil {
		p.SSL = *entry.SSL
	}

	if name == "custom" {
		applyCustomOverrides(&p)
	}

	return p, nil
}

// applyCustomOverrides substitutes the custom provider's endpoint from the
// environment, keeping file values where no override is set.
func applyCustomOverrides(p *Provider) {
	if host := os.Getenv("IMAP_HOST"); host != "" {
		p.IMAPHost = host
	}
	if port := os.Getenv("IMAP_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			p.IMAPPort = n
		}
	}
	if ssl := os.Getenv("IMAP_SSL"); ssl != "" {
		switch strings.ToLower(ssl) {
		case "true", "1", "yes":
			p.SSL = true
		default:
			p.SSL = false
		}
	}
}

// DefaultProviderName returns the providers file's default entry, or "gmx"
// when no file or default is present.
func DefaultProviderName(configPath string) string {
	path := findProvidersFile(configPath)
	if path == "" {
		return "gmx"
	}
	file, err := readProvidersFile(path)
	if err != nil || file.Default == "" {
		return "gmx"
	}
	return file.Default
}
