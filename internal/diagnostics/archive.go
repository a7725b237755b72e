package diagnostics

import (
	"archive/zip"
	"bytes"
	"encoding/json"

	"github.com/mgarzon/floracast-go/internal/errors"
)

// CreateArchive renders a bundle as a zip archive. bundle.json carries
// the complete bundle, the larger sections are repeated as standalone
// files so they can be inspected without a JSON tool.
func (c *Collector) CreateArchive(bundle *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	sections := []struct {
		name string
		data any
		skip bool
	}{
		{name: "bundle.json", data: bundle},
		{name: "system_info.json", data: bundle.SystemInfo, skip: bundle.SystemInfo.OS == ""},
		{name: "config.json", data: bundle.Config, skip: bundle.Config == nil},
		{name: "artifacts.json", data: bundle.Artifacts, skip: len(bundle.Artifacts) == 0},
		{name: "logs.json", data: bundle.Logs, skip: len(bundle.Logs) == 0},
	}

	for _, section := range sections {
		if section.skip {
			continue
		}
		f, err := w.Create(section.name)
		if err != nil {
			return nil, archiveError(err, "create_archive_file", section.name, bundle.ID)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(section.data); err != nil {
			return nil, archiveError(err, "write_archive_file", section.name, bundle.ID)
		}
	}

	if err := w.Close(); err != nil {
		return nil, archiveError(err, "close_archive", "", bundle.ID)
	}

	return buf.Bytes(), nil
}

func archiveError(err error, operation, file, bundleID string) error {
	b := errors.New(err).
		Component("diagnostics").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("bundle_id", bundleID)
	if file != "" {
		b = b.Context("file", file)
	}
	return b.Build()
}
