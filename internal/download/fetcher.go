package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vsxdl/internal/marketplace"
	"vsxdl/internal/utils"
	"vsxdl/internal/vsix"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
)

type Result struct {
	Target        Target
	FilePath      string
	Size          int64
	WasDownloaded bool
	// Manifest is nil when the package could not be read back.
	Manifest *vsix.Manifest
}

// DoneMsg reports a finished download to the event loop.
type DoneMsg struct {
	Target Target
	Result *Result
	Err    error
}

// Fetcher is the Trigger that stores packages under a local directory.
type Fetcher struct {
	baseURL   string
	dir       string
	client    *http.Client
	logger    *utils.Logger
	fileUtils *utils.FileUtils
}

func NewFetcher(baseURL, dir string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		baseURL: baseURL,
		dir:     dir,
		client: &http.Client{
			Timeout: timeout,
		},
		logger:    utils.NewLogger(),
		fileUtils: utils.NewFileUtils(),
	}
}

func (f *Fetcher) Dir() string {
	return f.dir
}

func (f *Fetcher) Fire(t Target) tea.Cmd {
	return func() tea.Msg {
		result, err := f.Download(context.Background(), t)
		return DoneMsg{Target: t, Result: result, Err: err}
	}
}

// Download stores the package of t, reusing a file that is already present.
func (f *Fetcher) Download(ctx context.Context, t Target) (*Result, error) {
	downloadURL, err := PackageURL(f.baseURL, t)
	if err != nil {
		return nil, err
	}

	if err := f.fileUtils.EnsureDirectory(f.dir); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(f.dir, t.FileName())

	lock := flock.New(filepath.Join(f.dir, "."+t.FileName()+".lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", filePath, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			f.logger.LogWarning("failed to release lock for %s: %v", filePath, err)
			return
		}
		// Best effort: a concurrent download may already hold a new lock file.
		if err := os.Remove(lock.Path()); err != nil && !os.IsNotExist(err) {
			f.logger.LogDebug("failed to remove lock file %s: %v", lock.Path(), err)
		}
	}()

	if info, err := os.Stat(filePath); err == nil {
		f.logger.LogFileOperation("reuse", filePath, nil)
		return &Result{
			Target:   t,
			FilePath: filePath,
			Size:     info.Size(),
			Manifest: f.inspect(filePath, t),
		}, nil
	}

	start := time.Now()
	size, err := f.downloadFile(ctx, downloadURL, filePath)
	f.logger.LogFileOperation("download", filePath, err)
	if err != nil {
		return nil, err
	}
	f.logger.LogPerformance("download "+t.ID(), time.Since(start))
	f.logger.LogInfo("saved %s (%d bytes)", filePath, size)

	return &Result{
		Target:        t,
		FilePath:      filePath,
		Size:          size,
		WasDownloaded: true,
		Manifest:      f.inspect(filePath, t),
	}, nil
}

// downloadFile writes into a temporary file first so an interrupted transfer
// never leaves a truncated package under the final name.
func (f *Fetcher) downloadFile(ctx context.Context, downloadURL, filePath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(utils.UserAgentHeader, utils.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &marketplace.NetworkError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &marketplace.NetworkError{Op: "download", StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".vsxdl-*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return written, nil
}

func (f *Fetcher) inspect(filePath string, t Target) *vsix.Manifest {
	manifest, err := vsix.Inspect(filePath)
	if err != nil {
		f.logger.LogWarning("could not read %s: %v", filePath, err)
		return nil
	}
	if !manifest.Matches(t.PublisherName, t.ExtensionName, t.Version) {
		f.logger.LogWarning("%s contains %s@%s, expected %s@%s",
			filePath, manifest.ID(), manifest.Version, t.ID(), t.Version)
	}
	return manifest
}
