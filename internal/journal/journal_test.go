package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mailarc/mailarc/pkg/models"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })

	if err := j.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return j
}

func testRun(kind string, started time.Time) *models.RunSummary {
	return &models.RunSummary{
		Kind:        kind,
		Folder:      "INBOX",
		Total:       10,
		Processed:   7,
		Skipped:     3,
		Attachments: 2,
		Bytes:       4096,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
	}
}

func TestRecordAssignsID(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	run := testRun(models.RunKindArchive, time.Now())
	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("Record() left ID empty")
	}

	runs, err := j.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("RecentRuns() returned %d runs, want 1", len(runs))
	}
	if runs[0].ID != run.ID {
		t.Errorf("stored ID = %q, want %q", runs[0].ID, run.ID)
	}
}

func TestRecordKeepsExplicitID(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	run := testRun(models.RunKindUpload, time.Now())
	run.ID = "run-42"
	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if run.ID != "run-42" {
		t.Errorf("Record() rewrote ID to %q", run.ID)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	started := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	run := testRun(models.RunKindArchive, started)
	run.Errors = 1
	run.DryRun = true
	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	runs, err := j.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("RecentRuns() returned %d runs, want 1", len(runs))
	}

	got := runs[0]
	if got.Kind != models.RunKindArchive || got.Folder != "INBOX" {
		t.Errorf("stored run = %q %q, want %q %q", got.Kind, got.Folder, models.RunKindArchive, "INBOX")
	}
	if got.Total != 10 || got.Processed != 7 || got.Skipped != 3 || got.Errors != 1 || got.Attachments != 2 {
		t.Errorf("stored counts = %d/%d/%d/%d/%d", got.Total, got.Processed, got.Skipped, got.Errors, got.Attachments)
	}
	if got.Bytes != 4096 {
		t.Errorf("stored bytes = %d, want 4096", got.Bytes)
	}
	if !got.DryRun {
		t.Error("stored run lost dry_run flag")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("stored started_at = %v, want %v", got.StartedAt, started)
	}
	if !got.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Errorf("stored finished_at = %v, want %v", got.FinishedAt, started.Add(time.Minute))
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	for i, kind := range []string{models.RunKindArchive, models.RunKindUpload, models.RunKindClean} {
		if err := j.Record(ctx, testRun(kind, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	runs, err := j.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns(2) returned %d runs", len(runs))
	}
	if runs[0].Kind != models.RunKindClean || runs[1].Kind != models.RunKindUpload {
		t.Errorf("RecentRuns() order = %q, %q, want newest first", runs[0].Kind, runs[1].Kind)
	}
}

func TestRecentRunsEmpty(t *testing.T) {
	j := openJournal(t)

	runs, err := j.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("RecentRuns() on empty journal returned %d runs", len(runs))
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "deep", "journal.db")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Open() did not create parent directory: %v", err)
	}
}
