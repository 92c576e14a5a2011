package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mholt/archives"
	"gopkg.in/yaml.v3"
)

// Names of the entries inside a backup archive
const (
	ScriptEntry   = "globals.praxis"
	ManifestEntry = "manifest.yml"
)

// Manifest describes a backup archive
type Manifest struct {
	ServerID  string    `yaml:"server_id"`
	Variables int       `yaml:"variables"`
	Lines     int       `yaml:"lines"`
	CreatedAt time.Time `yaml:"created_at"`
	Version   string    `yaml:"version,omitempty"`
}

// Bundle is the content of a backup archive
type Bundle struct {
	Manifest Manifest
	Script   string
}

// WriteArchive packs the dump lines and a manifest into a tar.gz at path
func WriteArchive(ctx context.Context, path string, manifest Manifest, lines []string) error {
	staging, err := os.MkdirTemp("", "praxis-backup-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	script := strings.Join(lines, "\n")
	if script != "" {
		script += "\n"
	}
	manifest.Lines = len(lines)

	meta, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	scriptPath := filepath.Join(staging, ScriptEntry)
	manifestPath := filepath.Join(staging, ManifestEntry)
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return fmt.Errorf("failed to stage dump: %w", err)
	}
	if err := os.WriteFile(manifestPath, meta, 0644); err != nil {
		return fmt.Errorf("failed to stage manifest: %w", err)
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		manifestPath: ManifestEntry,
		scriptPath:   ScriptEntry,
	})
	if err != nil {
		return fmt.Errorf("failed to collect backup files: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() { _ = out.Close() }()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, out, files); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	log.Infof("wrote %d variable(s) of server %s to %s", manifest.Variables, manifest.ServerID, path)
	return nil
}

// ReadArchive opens a backup archive written by WriteArchive
func ReadArchive(ctx context.Context, path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	format, reader, err := archives.Identify(ctx, path, file)
	if err != nil {
		return nil, fmt.Errorf("failed to identify archive format: %w", err)
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("format does not support extraction: %s", path)
	}

	var bundle Bundle
	var haveScript, haveManifest bool

	handler := func(ctx context.Context, f archives.FileInfo) error {
		if f.IsDir() {
			return nil
		}
		name := filepath.Base(f.NameInArchive)
		if name != ScriptEntry && name != ManifestEntry {
			return nil
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", f.NameInArchive, err)
		}
		defer func() { _ = rc.Close() }()

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, rc); err != nil {
			return fmt.Errorf("failed to read %s: %w", f.NameInArchive, err)
		}

		switch name {
		case ScriptEntry:
			bundle.Script = buf.String()
			haveScript = true
		case ManifestEntry:
			if err := yaml.Unmarshal(buf.Bytes(), &bundle.Manifest); err != nil {
				return fmt.Errorf("failed to parse manifest: %w", err)
			}
			haveManifest = true
		}
		return nil
	}

	if err := extractor.Extract(ctx, reader, handler); err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	if !haveScript {
		return nil, fmt.Errorf("archive %s has no %s", path, ScriptEntry)
	}
	if !haveManifest {
		log.Warningf("archive %s has no %s", path, ManifestEntry)
	}
	return &bundle, nil
}
