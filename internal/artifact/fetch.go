// fetch.go downloads artifact sets from a remote export endpoint
package artifact

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mgarzon/floracast-go/internal/errors"
)

const (
	fetchTimeout          = 30 * time.Second
	fetchUserAgent        = "FloraCast-Go"
	fetchDialTimeout      = 10 * time.Second
	fetchTLSTimeout       = 10 * time.Second
	fetchHeaderTimeout    = 10 * time.Second
	fetchIdleConnTimeout  = 90 * time.Second
	fetchMaxIdleConnsHost = 2
)

// Fetcher downloads the artifact set of one domain from a training export
// endpoint. The endpoint serves the three files by name under a base URL.
// Downloads land in a staging directory and replace the live files only
// after the full set parses, a broken or interrupted download never
// clobbers a working artifact set.
type Fetcher struct {
	domain  string
	baseURL string
	client  *http.Client
}

// NewFetcher creates a fetcher for a domain. baseURL is the directory-like
// URL the trainer exports to, without a trailing file name.
func NewFetcher(domain, baseURL string) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   fetchDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   fetchMaxIdleConnsHost,
		IdleConnTimeout:       fetchIdleConnTimeout,
		TLSHandshakeTimeout:   fetchTLSTimeout,
		ResponseHeaderTimeout: fetchHeaderTimeout,
	}

	return &Fetcher{
		domain:  domain,
		baseURL: baseURL,
		client:  &http.Client{Transport: transport},
	}
}

// HTTPClient exposes the underlying client so tests can intercept
// transport level behavior.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.client
}

// Sync downloads the artifact set into dir. It reports whether the live
// files changed, false means the remote set matches the resident version
// and nothing was touched. Callers reload the store themselves when
// changed is true.
func (f *Fetcher) Sync(ctx context.Context, dir string) (changed bool, err error) {
	defer func() {
		if mx := getMetrics(); mx != nil {
			mx.RecordSync(f.domain, syncStatus(changed, err))
		}
	}()

	staging, err := os.MkdirTemp(dir, ".sync-*")
	if err != nil {
		return false, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("domain", f.domain).
			Context("operation", "create-staging-dir").
			Build()
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			artifactLogger.Warn("Failed to remove staging dir", "dir", staging, "error", rmErr)
		}
	}()

	for _, name := range []string{MetadataFile, EncodersFile, RegressorFile} {
		if err := f.download(ctx, name, filepath.Join(staging, name)); err != nil {
			return false, err
		}
	}

	// Validate the downloaded set end to end before touching live files.
	fetched, err := LoadModel(f.domain, staging)
	if err != nil {
		return false, errors.New(fmt.Errorf("fetched artifact set is not usable: %w", err)).
			Category(errors.CategoryArtifactCorrupt).
			Context("domain", f.domain).
			Context("base_url", f.baseURL).
			Build()
	}

	if sameExport(dir, fetched.Metadata) {
		artifactLogger.Debug("remote artifact set matches resident version, skipping swap",
			"domain", f.domain,
			"model_version", fetched.Metadata.ModelVersion)
		return false, nil
	}

	// Staging lives inside dir, renames stay on one filesystem and are
	// atomic per file.
	for _, name := range []string{MetadataFile, EncodersFile, RegressorFile} {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(dir, name)); err != nil {
			return false, errors.New(err).
				Category(errors.CategoryFileIO).
				ArtifactContext(filepath.Join(dir, name), f.domain).
				Context("operation", "swap-artifact").
				Build()
		}
	}

	artifactLogger.Info("artifact set synced",
		"domain", f.domain,
		"base_url", f.baseURL,
		"model_version", fetched.Metadata.ModelVersion,
		"trained_at", fetched.Metadata.TrainedAt)
	return true, nil
}

// download fetches one artifact file into dst.
func (f *Fetcher) download(ctx context.Context, name, dst string) error {
	fileURL, err := url.JoinPath(f.baseURL, name)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("domain", f.domain).
			Context("base_url", f.baseURL).
			Build()
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryNetwork).
			NetworkContext(fileURL, fetchTimeout).
			Build()
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryNetwork).
			NetworkContext(fileURL, fetchTimeout).
			Context("domain", f.domain).
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			artifactLogger.Warn("Failed to close response body", "url", fileURL, "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("artifact endpoint returned %s for %s", resp.Status, name).
			Category(errors.CategoryHTTP).
			NetworkContext(fileURL, fetchTimeout).
			Context("domain", f.domain).
			Context("status_code", resp.StatusCode).
			Build()
	}

	out, err := os.Create(dst) //nolint:gosec // G304: dst is inside our staging dir
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			FileContext(dst, 0).
			Build()
	}

	_, copyErr := io.Copy(out, io.LimitReader(resp.Body, maxArtifactSize+1))
	closeErr := out.Close()
	if copyErr != nil {
		return errors.New(fmt.Errorf("downloading %s: %w", name, copyErr)).
			Category(errors.CategoryNetwork).
			NetworkContext(fileURL, fetchTimeout).
			Build()
	}
	if closeErr != nil {
		return errors.New(closeErr).
			Category(errors.CategoryFileIO).
			FileContext(dst, 0).
			Build()
	}
	return nil
}

// syncStatus maps a sync outcome onto its metric label.
func syncStatus(changed bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case changed:
		return "changed"
	default:
		return "unchanged"
	}
}

// sameExport reports whether the resident metadata matches the fetched one
// by version and training timestamp. A missing or unreadable resident
// manifest counts as different so sync can repair a broken directory.
func sameExport(dir string, fetched *Metadata) bool {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile)) //nolint:gosec // G304: configured artifact dir
	if err != nil {
		return false
	}
	resident, err := ParseMetadata(data)
	if err != nil {
		return false
	}
	return resident.ModelVersion == fetched.ModelVersion && resident.TrainedAt == fetched.TrainedAt
}
