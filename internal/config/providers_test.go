package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProvidersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	return path
}

func TestLoadProviderBuiltin(t *testing.T) {
	p, err := LoadProvider("gmx", filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadProvider: %v", err)
	}
	if p.IMAPHost != "imap.gmx.net" {
		t.Errorf("IMAPHost = %q, want imap.gmx.net", p.IMAPHost)
	}
	if p.IMAPPort != 993 {
		t.Errorf("IMAPPort = %d, want 993", p.IMAPPort)
	}
	if !p.SSL {
		t.Error("SSL = false, want true")
	}
	if p.Addr() != "imap.gmx.net:993" {
		t.Errorf("Addr() = %q, want imap.gmx.net:993", p.Addr())
	}
}

func TestLoadProviderBuiltinUnknown(t *testing.T) {
	_, err := LoadProvider("fastmail", filepath.Join(t.TempDir(), "missing.yaml"))
	var upErr *UnknownProviderError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UnknownProviderError", err)
	}
	if upErr.Provider != "fastmail" {
		t.Errorf("Provider = %q, want fastmail", upErr.Provider)
	}
}

func TestLoadProviderFromFile(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  corp:
    name: Corporate Mail
    imap_host: mail.corp.example
    imap_port: 143
    ssl: false
default: corp
`)

	p, err := LoadProvider("corp", path)
	if err != nil {
		t.Fatalf("LoadProvider: %v", err)
	}
	if p.Name != "Corporate Mail" {
		t.Errorf("Name = %q, want Corporate Mail", p.Name)
	}
	if p.IMAPHost != "mail.corp.example" {
		t.Errorf("IMAPHost = %q", p.IMAPHost)
	}
	if p.IMAPPort != 143 {
		t.Errorf("IMAPPort = %d, want 143", p.IMAPPort)
	}
	if p.SSL {
		t.Error("SSL = true, want false")
	}
}

func TestLoadProviderFileDefaults(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  minimal:
    imap_host: imap.minimal.example
`)

	p, err := LoadProvider("minimal", path)
	if err != nil {
		t.Fatalf("LoadProvider: %v", err)
	}
	if p.Name != "minimal" {
		t.Errorf("Name = %q, want minimal (fallback to key)", p.Name)
	}
	if p.IMAPPort != 993 {
		t.Errorf("IMAPPort = %d, want default 993", p.IMAPPort)
	}
	if !p.SSL {
		t.Error("SSL = false, want default true")
	}
}

func TestLoadProviderFileUnknownListsAvailable(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  alpha:
    imap_host: a.example
  beta:
    imap_host: b.example
`)

	_, err := LoadProvider("gamma", path)
	var upErr *UnknownProviderError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UnknownProviderError", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "alpha") || !strings.Contains(msg, "beta") {
		t.Errorf("error %q should name available providers", msg)
	}
}

func TestLoadProviderFileShadowsBuiltins(t *testing.T) {
	// A providers file replaces the built-in registry entirely.
	path := writeProvidersFile(t, `
providers:
  corp:
    imap_host: mail.corp.example
`)

	_, err := LoadProvider("gmx", path)
	var upErr *UnknownProviderError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UnknownProviderError", err)
	}
}

func TestLoadProviderMalformedFile(t *testing.T) {
	path := writeProvidersFile(t, "providers: [not, a, map]")

	_, err := LoadProvider("gmx", path)
	if err == nil {
		t.Fatal("expected parse error for malformed providers file")
	}
}

func TestLoadProviderCustomOverrides(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  custom:
    imap_host: placeholder.example
    imap_port: 993
`)

	t.Setenv("IMAP_HOST", "imap.internal.example")
	t.Setenv("IMAP_PORT", "1143")
	t.Setenv("IMAP_SSL", "false")

	p, err := LoadProvider("custom", path)
	if err != nil {
		t.Fatalf("LoadProvider: %v", err)
	}
	if p.IMAPHost != "imap.internal.example" {
		t.Errorf("IMAPHost = %q, want env override", p.IMAPHost)
	}
	if p.IMAPPort != 1143 {
		t.Errorf("IMAPPort = %d, want 1143", p.IMAPPort)
	}
	if p.SSL {
		t.Error("SSL = true, want false from IMAP_SSL=false")
	}
}

func TestLoadProviderCustomSSLSpellings(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  custom:
    imap_host: placeholder.example
    ssl: false
`)

	for _, val := range []string{"true", "1", "yes", "YES"} {
		t.Setenv("IMAP_SSL", val)
		p, err := LoadProvider("custom", path)
		if err != nil {
			t.Fatalf("LoadProvider(%q): %v", val, err)
		}
		if !p.SSL {
			t.Errorf("IMAP_SSL=%q: SSL = false, want true", val)
		}
	}
}

func TestDefaultProviderName(t *testing.T) {
	path := writeProvidersFile(t, `
providers:
  corp:
    imap_host: mail.corp.example
default: corp
`)
	if got := DefaultProviderName(path); got != "corp" {
		t.Errorf("DefaultProviderName = %q, want corp", got)
	}
}

func TestDefaultProviderNameFallback(t *testing.T) {
	if got := DefaultProviderName(filepath.Join(t.TempDir(), "missing.yaml")); got != "gmx" {
		t.Errorf("DefaultProviderName = %q, want gmx", got)
	}

	path := writeProvidersFile(t, `
providers:
  corp:
    imap_host: mail.corp.example
`)
	if got := DefaultProviderName(path); got != "gmx" {
		t.Errorf("DefaultProviderName (no default key) = %q, want gmx", got)
	}
}
