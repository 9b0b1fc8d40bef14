package geo

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultBaseURL is the GeoNames dump directory.
const DefaultBaseURL = "https://download.geonames.org/export/dump"

// DefaultDataset matches the city table bundled with most geodata caches.
const DefaultDataset = "cities15000"

var datasets = map[string]bool{
	"cities500":   true,
	"cities1000":  true,
	"cities5000":  true,
	"cities15000": true,
}

// ValidDataset reports whether name is a supported GeoNames city table.
func ValidDataset(name string) bool { return datasets[name] }

// FetchOptions configures Fetch.
type FetchOptions struct {
	BaseURL string
	DataDir string
	Dataset string
}

// Fetch makes sure the GeoNames country table and city table for the dataset
// exist in DataDir, downloading and extracting them when missing. Files
// already on disk are reused so that later runs work offline.
func Fetch(ctx context.Context, httpClient *http.Client, opts FetchOptions) error {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Dataset == "" {
		opts.Dataset = DefaultDataset
	}
	if !ValidDataset(opts.Dataset) {
		return eris.Errorf("geo: unsupported dataset %q (valid: cities500, cities1000, cities5000, cities15000)", opts.Dataset)
	}

	log := zap.L().With(zap.String("component", "geo.loader"))

	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return eris.Wrapf(err, "geo: create data dir %s", opts.DataDir)
	}

	countryPath := filepath.Join(opts.DataDir, CountryInfoFile)
	if !exists(countryPath) {
		url := strings.TrimRight(opts.BaseURL, "/") + "/" + CountryInfoFile
		log.Info("downloading country table", zap.String("url", url))
		if err := downloadFile(ctx, httpClient, url, countryPath); err != nil {
			return eris.Wrap(err, "geo: download country table")
		}
	}

	cityPath := filepath.Join(opts.DataDir, opts.Dataset+".txt")
	if exists(cityPath) {
		log.Debug("using cached city table", zap.String("path", cityPath))
		return nil
	}

	zipPath := filepath.Join(opts.DataDir, opts.Dataset+".zip")
	url := strings.TrimRight(opts.BaseURL, "/") + "/" + opts.Dataset + ".zip"
	log.Info("downloading city table", zap.String("url", url))
	if err := downloadFile(ctx, httpClient, url, zipPath); err != nil {
		return eris.Wrap(err, "geo: download city table")
	}
	defer func() { _ = os.Remove(zipPath) }()

	if err := extractZIP(zipPath, opts.DataDir); err != nil {
		return eris.Wrap(err, "geo: extract city table")
	}
	if !exists(cityPath) {
		return eris.Errorf("geo: %s not found in %s.zip", filepath.Base(cityPath), opts.Dataset)
	}

	log.Info("geonames data ready", zap.String("dir", opts.DataDir), zap.String("dataset", opts.Dataset))
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// downloadFile downloads a URL to a local file.
func downloadFile(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrap(err, "create file")
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return eris.Wrap(err, "write file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "close file")
	}

	return eris.Wrap(os.Rename(tmp, dest), "rename file")
}

// extractZIP extracts a ZIP archive to the destination directory, flattening
// any directory structure inside it.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}

	return nil
}
