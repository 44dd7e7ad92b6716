// Package downloader fetches the journal workbooks from the shared drive
// into a local directory for the extraction worker.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/trezcool/gremuiv/core"
)

// exportURL downloads a spreadsheet without credentials when link sharing
// is on; the Drive API path is preferred when an API key is configured.
const exportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=xlsx"

type Service struct {
	dir    string
	apiKey string
	logger core.Logger
	client *http.Client
}

func NewService(conf *core.Config, logger core.Logger) *Service {
	return &Service{
		dir:    conf.Parser.DownloadDir,
		apiKey: conf.Parser.DriveAPIKey,
		logger: logger,
		client: http.DefaultClient,
	}
}

// Download fetches one spreadsheet into the download directory and returns
// the local path. The file on disk is always named file.Name so the group
// derivation and the update log stay stable across runs.
func (svc *Service) Download(ctx context.Context, file core.TargetFile) (string, error) {
	if err := os.MkdirAll(svc.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating download dir")
	}

	if svc.apiKey != "" {
		path, err := svc.downloadDrive(ctx, file)
		if err == nil {
			return path, nil
		}
		svc.logger.Warn("drive API download failed, falling back to export URL", err)
	}
	return svc.downloadExport(ctx, file)
}

func (svc *Service) downloadDrive(ctx context.Context, file core.TargetFile) (string, error) {
	srv, err := drive.NewService(ctx, option.WithAPIKey(svc.apiKey))
	if err != nil {
		return "", errors.Wrap(err, "creating drive client")
	}

	resp, err := srv.Files.Get(file.DriveID).Context(ctx).Download()
	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", file.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	return svc.save(file.Name, resp.Body)
}

func (svc *Service) downloadExport(ctx context.Context, file core.TargetFile) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(exportURL, file.DriveID), nil)
	if err != nil {
		return "", errors.Wrap(err, "building export request")
	}
	resp, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", file.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("downloading %s: unexpected status %s", file.Name, resp.Status)
	}
	return svc.save(file.Name, resp.Body)
}

func (svc *Service) save(name string, r io.Reader) (string, error) {
	path := filepath.Join(svc.dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	defer func() { _ = out.Close() }()

	if _, err = io.Copy(out, r); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}
