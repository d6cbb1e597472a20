package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/labgrader/api"
)

const (
	FeedbackDir  = "feedback"
	ReadmeFile   = "README.md"
	CSVFile      = "grade.csv"
	JSONFile     = "result.json"
	ArchiveFile  = "result.json.zst"
	DefaultDir   = "artifacts"
	artifactPerm = 0o644
)

// Paths lists the files written by WriteArtifacts.
type Paths struct {
	Readme  string
	CSV     string
	JSON    string
	Archive string
}

// WriteArtifacts writes the feedback README, grade.csv and the JSON record
// (plain and zstd-compressed) under dir.
func WriteArtifacts(dir string, rec *api.GradeRecord) (Paths, error) {
	p := Paths{
		Readme:  filepath.Join(dir, FeedbackDir, ReadmeFile),
		CSV:     filepath.Join(dir, CSVFile),
		JSON:    filepath.Join(dir, JSONFile),
		Archive: filepath.Join(dir, ArchiveFile),
	}
	if err := os.MkdirAll(filepath.Join(dir, FeedbackDir), 0o755); err != nil {
		return p, fmt.Errorf("failed to create artifacts dir: %w", err)
	}

	if err := os.WriteFile(p.Readme, []byte(Markdown(rec)), artifactPerm); err != nil {
		return p, fmt.Errorf("failed to write feedback: %w", err)
	}

	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, rec); err != nil {
		return p, fmt.Errorf("failed to encode csv: %w", err)
	}
	if err := os.WriteFile(p.CSV, csvBuf.Bytes(), artifactPerm); err != nil {
		return p, fmt.Errorf("failed to write csv: %w", err)
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return p, fmt.Errorf("failed to encode record: %w", err)
	}
	if err := os.WriteFile(p.JSON, raw, artifactPerm); err != nil {
		return p, fmt.Errorf("failed to write record: %w", err)
	}
	compressed, err := Compress(raw)
	if err != nil {
		return p, err
	}
	if err := os.WriteFile(p.Archive, compressed, artifactPerm); err != nil {
		return p, fmt.Errorf("failed to write archive: %w", err)
	}
	return p, nil
}

// AppendStepSummary appends the Markdown summary to path. An empty path is a no-op.
func AppendStepSummary(path string, rec *api.GradeRecord) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, artifactPerm)
	if err != nil {
		return fmt.Errorf("failed to open step summary: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, Markdown(rec)); err != nil {
		return fmt.Errorf("failed to append step summary: %w", err)
	}
	return nil
}

func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// ReadRecord loads a result.json or result.json.zst file.
func ReadRecord(path string) (*api.GradeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".zst") {
		if data, err = Decompress(data); err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
	}
	var rec api.GradeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &rec, nil
}
