// Package smb wraps the go-smb2 client for NAS uploads. Callers work with
// full UNC paths (\\host\share\dir\file); the client maps them onto the
// mounted share.
package smb

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// Session is the SMB surface the upload engine and probe run against.
type Session interface {
	ListDir(path string) ([]string, error)
	Stat(path string) error
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
	Close() error
}

// ClientConfig configuration for the SMB connection
type ClientConfig struct {
	Host        string
	Port        int
	Share       string
	Username    string
	Password    string
	DialTimeout time.Duration
}

// Client implements Session against a mounted SMB share.
type Client struct {
	conn    net.Conn
	session *smb2.Session
	share   *smb2.Share
	prefix  string
	logger  *slog.Logger
}

// Dial connects to the SMB server and mounts the share.
func Dial(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	port := cfg.Port
	if port == 0 {
		port = 445
	}
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, port)
	log := logger.With("component", "smb", "server", addr, "share", cfg.Share)

	log.Info("connecting to SMB server")

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.Username,
			Password: cfg.Password,
		},
	}

	session, err := dialer.Dial(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SMB session: %w", err)
	}

	share, err := session.Mount(cfg.Share)
	if err != nil {
		session.Logoff()
		conn.Close()
		return nil, fmt.Errorf("failed to mount share %s: %w", cfg.Share, err)
	}

	log.Info("share mounted")

	return &Client{
		conn:    conn,
		session: session,
		share:   share,
		prefix:  `\\` + cfg.Host + `\` + cfg.Share,
		logger:  log,
	}, nil
}

// relPath translates a UNC path into a share-relative path.
func (c *Client) relPath(path string) (string, error) {
	if path == c.prefix {
		return ".", nil
	}
	rest, ok := strings.CutPrefix(path, c.prefix+`\`)
	if !ok {
		return "", fmt.Errorf("path %q is outside share %s", path, c.prefix)
	}
	if rest == "" {
		return ".", nil
	}
	return rest, nil
}

// ListDir returns the entry names in a directory.
func (c *Client) ListDir(path string) ([]string, error) {
	rel, err := c.relPath(path)
	if err != nil {
		return nil, err
	}
	infos, err := c.share.ReadDir(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

// Stat reports whether the path exists on the share.
func (c *Client) Stat(path string) error {
	rel, err := c.relPath(path)
	if err != nil {
		return err
	}
	if _, err := c.share.Stat(rel); err != nil {
		return err
	}
	return nil
}

// MkdirAll creates a directory and any missing parents.
func (c *Client) MkdirAll(path string) error {
	rel, err := c.relPath(path)
	if err != nil {
		return err
	}
	if err := c.share.MkdirAll(rel, 0o755); err != nil {
		return err
	}
	return nil
}

// Create opens a file for writing, truncating it if it exists.
func (c *Client) Create(path string) (io.WriteCloser, error) {
	rel, err := c.relPath(path)
	if err != nil {
		return nil, err
	}
	f, err := c.share.Create(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

// Close unmounts the share and tears down the connection.
func (c *Client) Close() error {
	var firstErr error
	if err := c.share.Umount(); err != nil {
		firstErr = err
	}
	if err := c.session.Logoff(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
