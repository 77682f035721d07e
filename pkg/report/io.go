package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// atomicWriteJSON marshals v and replaces path with it through a temp file
// and rename, so pollers never read a partial document.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ReadIndex loads report.json from a report directory.
func ReadIndex(outputDir string) (*Index, error) {
	var idx Index
	if err := readJSON(filepath.Join(outputDir, "report.json"), &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// ReadFlow loads a flow detail file referenced by a FlowEntry.
func ReadFlow(outputDir string, entry FlowEntry) (*FlowDetail, error) {
	var fd FlowDetail
	if err := readJSON(filepath.Join(outputDir, entry.DataFile), &fd); err != nil {
		return nil, err
	}
	return &fd, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
