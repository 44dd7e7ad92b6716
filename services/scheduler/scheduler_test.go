package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/trezcool/gremuiv/core"
	"github.com/trezcool/gremuiv/core/journal"
	"github.com/trezcool/gremuiv/services/extractor"
	inmemdb "github.com/trezcool/gremuiv/storage/database/inmem"
	testutil "github.com/trezcool/gremuiv/tests"
)

type fakeDownloader struct {
	path  string
	calls int
}

func (d *fakeDownloader) Download(context.Context, core.TargetFile) (string, error) {
	d.calls++
	return d.path, nil
}

func TestScheduler_RunOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Испп 32.xlsx")
	testutil.WriteWorkbook(t, path, []string{"Химия"}, []testutil.Cell{
		{Sheet: "Химия", Axis: "C1", Value: "Сентябрь 2023"},
		{Sheet: "Химия", Axis: "B2", Value: "ФИО обучающихся"},
		{Sheet: "Химия", Axis: "C2", Value: "4"},
		{Sheet: "Химия", Axis: "B3", Value: "Иванов Иван Иванович"},
		{Sheet: "Химия", Axis: "C3", Value: "5"},
	})

	conf := &core.Config{}
	conf.Parser.Interval = 15 * time.Minute
	conf.Parser.Files = []core.TargetFile{{Name: "Испп 32.xlsx", DriveID: "x"}}
	conf.Parser.GroupPrefixes = []string{"Испп "}

	repo := inmemdb.NewJournalRepository()
	svc := journal.NewService(repo)
	dl := &fakeDownloader{path: path}
	ex := extractor.New(extractor.Config{GroupPrefixes: conf.Parser.GroupPrefixes})

	s := New(conf, testutil.NopLogger{}, svc, dl, ex)
	now := time.Date(2023, time.September, 7, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	s.RunOnce(ctx)

	runs, err := svc.ParseRuns(ctx, 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ParseRuns() = %v, %v; want one run", runs, err)
	}
	if runs[0].Status != journal.RunStatusSuccess || runs[0].FilesProcessed != 1 {
		t.Errorf("run = %+v, want success with 1 file", runs[0])
	}

	groups, err := svc.Groups(ctx)
	if err != nil || len(groups) != 1 || groups[0].Name != "32" {
		t.Fatalf("Groups() = %v, %v; want group 32", groups, err)
	}

	// a second pass within the interval skips the fresh file
	now = now.Add(time.Minute)
	s.RunOnce(ctx)
	if dl.calls != 1 {
		t.Errorf("downloader calls = %d, want 1", dl.calls)
	}
	runs, _ = svc.ParseRuns(ctx, 0)
	if len(runs) != 2 || runs[0].FilesProcessed != 0 {
		t.Errorf("second run = %+v, want 0 files processed", runs)
	}

	// past the interval the file is stale again
	now = now.Add(20 * time.Minute)
	s.RunOnce(ctx)
	if dl.calls != 2 {
		t.Errorf("downloader calls = %d, want 2", dl.calls)
	}
}

func TestScheduler_RunOnce_downloadFailure(t *testing.T) {
	conf := &core.Config{}
	conf.Parser.Interval = 15 * time.Minute
	conf.Parser.Files = []core.TargetFile{{Name: "Испп 32.xlsx", DriveID: "x"}}

	repo := inmemdb.NewJournalRepository()
	svc := journal.NewService(repo)
	// points at a path that does not exist; extraction fails as a FileError
	dl := &fakeDownloader{path: "no-such-dir/Испп 32.xlsx"}
	ex := extractor.New(extractor.Config{})

	s := New(conf, testutil.NopLogger{}, svc, dl, ex)
	s.RunOnce(context.Background())

	runs, err := svc.ParseRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("ParseRuns() = %v, %v; want one run", runs, err)
	}
	if runs[0].Status != journal.RunStatusError || runs[0].Error == "" {
		t.Errorf("run = %+v, want error status with message", runs[0])
	}
}
