// Package imap wraps the go-imap client behind a session interface sized for
// archiving: folder listing, UID search, raw message download and deletion.
package imap

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// FolderInfo describes one folder on the server. Messages is -1 when the
// server refused the STATUS query.
type FolderInfo struct {
	Name     string
	Messages int
}

// Message is a raw message downloaded from the server.
type Message struct {
	UID          uint32
	Raw          []byte
	InternalDate time.Time
}

// FolderError reports a folder that could not be selected.
type FolderError struct {
	Folder string
	Err    error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("failed to select folder %q: %v", e.Folder, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// Session is the IMAP surface the engines run against.
type Session interface {
	ListFolders() ([]FolderInfo, error)
	Select(folder string, readOnly bool) (uint32, error)
	SearchAll() ([]uint32, error)
	SearchBefore(t time.Time) ([]uint32, error)
	FetchMessage(uid uint32) (*Message, error)
	MarkDeleted(uids []uint32) error
	Expunge() error
	Capabilities() ([]string, error)
	Logout() error
}

// ClientConfig configuration for the IMAP connection
type ClientConfig struct {
	Email       string
	Password    string
	Host        string
	Port        int
	SSL         bool
	DialTimeout time.Duration
}

// Client implements Session against a live IMAP server.
type Client struct {
	client *client.Client
	logger *slog.Logger
}

// Dial connects and logs in to the IMAP server.
func Dial(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log := logger.With("component", "imap", "server", addr)

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	log.Info("connecting to IMAP server", "ssl", cfg.SSL)

	var conn net.Conn
	var err error
	if cfg.SSL {
		dialer := &net.Dialer{Timeout: timeout}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, nil)
	} else {
		conn, err = net.DialTimeout("tcp", addr, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(cfg.Email, cfg.Password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	log.Info("connected to IMAP server")

	return &Client{client: imapClient, logger: log}, nil
}

// ListFolders lists all folders with their message counts.
func (c *Client) ListFolders() ([]FolderInfo, error) {
	mailboxes := make(chan *goimap.MailboxInfo, 32)
	done := make(chan error, 1)

	go func() {
		done <- c.client.List("", "*", mailboxes)
	}()

	var names []string
	for m := range mailboxes {
		names = append(names, m.Name)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	sort.Strings(names)

	// STATUS is issued after LIST completes; interleaving commands on one
	// connection is not allowed.
	folders := make([]FolderInfo, 0, len(names))
	for _, name := range names {
		info := FolderInfo{Name: name, Messages: -1}
		status, err := c.client.Status(name, []goimap.StatusItem{goimap.StatusMessages})
		if err != nil {
			c.logger.Debug("failed to get folder status", "folder", name, "error", err)
		} else {
			info.Messages = int(status.Messages)
		}
		folders = append(folders, info)
	}

	return folders, nil
}

// Select opens a folder and returns its message count.
func (c *Client) Select(folder string, readOnly bool) (uint32, error) {
	mbox, err := c.client.Select(folder, readOnly)
	if err != nil {
		return 0, &FolderError{Folder: folder, Err: err}
	}
	return mbox.Messages, nil
}

// SearchAll returns the UIDs of every message in the selected folder.
func (c *Client) SearchAll() ([]uint32, error) {
	return c.search(goimap.NewSearchCriteria())
}

// SearchBefore returns the UIDs of messages whose internal date is strictly
// before t. IMAP compares dates only, so the time of day is ignored.
func (c *Client) SearchBefore(t time.Time) ([]uint32, error) {
	criteria := goimap.NewSearchCriteria()
	criteria.Before = t
	return c.search(criteria)
}

func (c *Client) search(criteria *goimap.SearchCriteria) ([]uint32, error) {
	uids, err := c.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return uids, nil
}

// FetchMessage downloads the full raw message for one UID.
func (c *Client) FetchMessage(uid uint32) (*Message, error) {
	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uid)

	section := &goimap.BodySectionName{}
	items := []goimap.FetchItem{goimap.FetchUid, goimap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *goimap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.client.UidFetch(seqSet, items, messages)
	}()

	var msg *goimap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", uid, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", uid)
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message %d has no body", uid)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %d: %w", uid, err)
	}

	return &Message{UID: msg.Uid, Raw: raw, InternalDate: msg.InternalDate}, nil
}

// MarkDeleted adds the \Deleted flag to the given UIDs.
func (c *Client) MarkDeleted(uids []uint32) error {
	if len(uids) == 0 {
		return nil
	}

	seqSet := new(goimap.SeqSet)
	seqSet.AddNum(uids...)

	item := goimap.FormatFlagsOp(goimap.AddFlags, true)
	flags := []interface{}{goimap.DeletedFlag}

	if err := c.client.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("failed to mark as deleted: %w", err)
	}
	return nil
}

// Expunge permanently removes messages flagged \Deleted.
func (c *Client) Expunge() error {
	if err := c.client.Expunge(nil); err != nil {
		return fmt.Errorf("failed to expunge: %w", err)
	}
	return nil
}

// Capabilities returns the server's advertised capabilities, sorted.
func (c *Client) Capabilities() ([]string, error) {
	caps, err := c.client.Capability()
	if err != nil {
		return nil, fmt.Errorf("failed to get capabilities: %w", err)
	}

	names := make([]string, 0, len(caps))
	for name, ok := range caps {
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Logout ends the session.
func (c *Client) Logout() error {
	return c.client.Logout()
}
