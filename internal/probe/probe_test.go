package probe

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mailarc/mailarc/internal/config"
	"github.com/mailarc/mailarc/internal/imap"
)

type fakeMailSession struct {
	capsErr   error
	listErr   error
	selectErr error
	calls     []string
}

func (f *fakeMailSession) Capabilities() ([]string, error) {
	f.calls = append(f.calls, "capabilities")
	return []string{"IMAP4rev1", "IDLE"}, f.capsErr
}

func (f *fakeMailSession) ListFolders() ([]imap.FolderInfo, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []imap.FolderInfo{{Name: "INBOX", Messages: 3}}, nil
}

func (f *fakeMailSession) Select(folder string, readOnly bool) (uint32, error) {
	f.calls = append(f.calls, "select "+folder)
	if f.selectErr != nil {
		return 0, f.selectErr
	}
	return 3, nil
}

func (f *fakeMailSession) SearchAll() ([]uint32, error) { return nil, nil }

func (f *fakeMailSession) SearchBefore(t time.Time) ([]uint32, error) { return nil, nil }

func (f *fakeMailSession) FetchMessage(uid uint32) (*imap.Message, error) { return nil, nil }

func (f *fakeMailSession) MarkDeleted(uids []uint32) error { return nil }

func (f *fakeMailSession) Expunge() error { return nil }

func (f *fakeMailSession) Logout() error { return nil }

type fakeShareSession struct {
	entries map[string][]string
	statErr error
	calls   []string
}

func (f *fakeShareSession) ListDir(path string) ([]string, error) {
	f.calls = append(f.calls, "list "+path)
	entries, ok := f.entries[path]
	if !ok {
		return nil, errors.New("no such directory")
	}
	return entries, nil
}

func (f *fakeShareSession) Stat(path string) error {
	f.calls = append(f.calls, "stat "+path)
	return f.statErr
}

func (f *fakeShareSession) MkdirAll(path string) error { return errors.New("read-only probe") }

func (f *fakeShareSession) Create(path string) (io.WriteCloser, error) {
	return nil, errors.New("read-only probe")
}

func (f *fakeShareSession) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMailProbePasses(t *testing.T) {
	sess := &fakeMailSession{}
	if err := Mail(sess, "user@example.com", discardLogger()); err != nil {
		t.Fatalf("Mail: %v", err)
	}
	want := []string{"capabilities", "list", "select INBOX"}
	if len(sess.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", sess.calls, want)
	}
	for i := range want {
		if sess.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", sess.calls, want)
		}
	}
}

func TestMailProbeStopsAtFirstFailure(t *testing.T) {
	sess := &fakeMailSession{listErr: errors.New("LIST rejected")}
	err := Mail(sess, "user@example.com", discardLogger())
	if err == nil {
		t.Fatal("expected probe failure")
	}
	for _, call := range sess.calls {
		if call == "select INBOX" {
			t.Error("probe continued past the failing step")
		}
	}
}

func nasConfig() config.NASConfig {
	return config.NASConfig{
		Host:     "nas.local",
		Share:    "backup",
		BasePath: "/mail-archive",
	}
}

func TestShareProbePasses(t *testing.T) {
	sess := &fakeShareSession{entries: map[string][]string{
		`\\nas.local\backup`:              {"mail-archive", "photos"},
		`\\nas.local\backup\mail-archive`: {"user"},
	}}

	if err := Share(sess, nasConfig(), discardLogger()); err != nil {
		t.Fatalf("Share: %v", err)
	}
}

func TestShareProbeMissingBasePathIsNotFatal(t *testing.T) {
	sess := &fakeShareSession{entries: map[string][]string{
		`\\nas.local\backup`: {},
	}}

	if err := Share(sess, nasConfig(), discardLogger()); err != nil {
		t.Fatalf("Share: %v (missing base path must only warn)", err)
	}
}

func TestShareProbeRootFailureIsFatal(t *testing.T) {
	sess := &fakeShareSession{entries: map[string][]string{}}

	if err := Share(sess, nasConfig(), discardLogger()); err == nil {
		t.Fatal("expected share root failure to fail the probe")
	}
}

func TestShareProbeStatWarningIsNotFatal(t *testing.T) {
	sess := &fakeShareSession{
		entries: map[string][]string{`\\nas.local\backup`: {}},
		statErr: errors.New("ACCESS_DENIED"),
	}

	if err := Share(sess, nasConfig(), discardLogger()); err != nil {
		t.Fatalf("Share: %v (stat failure must only warn)", err)
	}
}
