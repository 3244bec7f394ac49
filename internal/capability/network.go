package capability

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stamforge/modhost/internal/errs"
	"github.com/stamforge/modhost/internal/registry"
)

// DownloadResult is the {status, buffer?, file_name?, temp_file_path?}
// shape spec.md §4.8 returns from network.download.
type DownloadResult struct {
	Status        int
	Buffer        []byte
	FileName      string
	TempFilePath  string
}

// StamDownloader fetches a stam:// URI's content via the host's own
// archive-serving logic (the server side of this same connection, for
// a client, or the local mod store, for the server's own use).
type StamDownloader func(ctx context.Context, uri *url.URL) ([]byte, string, error)

// Network implements the `network` capability.
type Network struct {
	Stam      StamDownloader
	TempFiles *registry.TempFileManager
}

// Download resolves uri per spec.md §4.8: stam:// through the host
// callback with retry, http(s):// as a fixed 501, anything else 400.
func (n *Network) Download(ctx context.Context, rawURI string) (DownloadResult, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return DownloadResult{Status: 400}, nil
	}

	switch u.Scheme {
	case "stam":
		return n.downloadStam(ctx, u)
	case "http", "https":
		return DownloadResult{Status: 501}, nil
	default:
		return DownloadResult{Status: 400}, nil
	}
}

func (n *Network) downloadStam(ctx context.Context, u *url.URL) (DownloadResult, error) {
	if n.Stam == nil {
		return DownloadResult{}, errs.New(errs.CodeNotImplemented, "no stam:// download callback configured")
	}

	var fileName string
	op := func() ([]byte, error) {
		data, name, err := n.Stam(ctx, u)
		fileName = name
		return data, err
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		return DownloadResult{Status: 502}, errs.Wrap(errs.CodeLoadError, "stam download failed", err)
	}

	if n.TempFiles == nil {
		return DownloadResult{Status: 200, Buffer: data, FileName: fileName}, nil
	}
	path, werr := n.TempFiles.NewFile("download")
	if werr != nil {
		return DownloadResult{Status: 200, Buffer: data, FileName: fileName}, nil
	}
	if werr := os.WriteFile(path, data, 0o600); werr != nil {
		return DownloadResult{Status: 200, Buffer: data, FileName: fileName}, nil
	}
	return DownloadResult{Status: 200, TempFilePath: path, FileName: fileName}, nil
}
