package config

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report %s: %v", name, err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open report entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("unable to read report entry %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Archive(t *testing.T) {
	tmpDir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(stored, []byte("version: 1\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	dir := filepath.Join(tmpDir, "logs")
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.log"), []byte("log"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r.Store("config.yaml", stored)
	r.Store("logs", dir)
	r.Store("missing", filepath.Join(tmpDir, "never-created"))
	r.StoreData("source/file10.css", []byte("a{}"))
	r.StoreData("source/file9.css", []byte("b{}"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}

	files := readArchive(t, conf.Destination)
	if files["config.yaml"] != "version: 1\n" {
		t.Errorf("config.yaml = %q", files["config.yaml"])
	}
	if files["logs/sub/a.log"] != "log" {
		t.Errorf("logs/sub/a.log = %q", files["logs/sub/a.log"])
	}
	if files["source/file9.css"] != "b{}" || files["source/file10.css"] != "a{}" {
		t.Errorf("stored data is wrong: %v", files)
	}
	if _, ok := files["missing"]; ok {
		t.Error("absent file should not be archived")
	}

	manifest := files["MANIFEST"]
	if !strings.Contains(manifest, "missing") {
		t.Error("absent file should be listed in manifest")
	}
	if i9, i10 := strings.Index(manifest, "file9.css"), strings.Index(manifest, "file10.css"); i9 < 0 || i10 < 0 || i9 > i10 {
		t.Errorf("manifest is not in natural order:\n%s", manifest)
	}
}

func TestReport_StoreDataVersionsNames(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("result.css", []byte("1"))
	r.StoreData("result.css", []byte("2"))
	if len(r.entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(r.entries))
	}
}

func TestReport_StoreOverwritePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("final.log", "a.log")
	r.Store("final.log", "a.log")

	defer func() {
		if recover() == nil {
			t.Error("Store() should panic when name is reused for another path")
		}
	}()
	r.Store("final.log", "b.log")
}

func TestReport_Concurrent(t *testing.T) {
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.StoreData(fmt.Sprintf("source/%d.css", i), []byte("a{}"))
		}()
	}
	wg.Wait()

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if files := readArchive(t, conf.Destination); len(files) != 17 {
		t.Errorf("expected 16 entries and manifest, got %d", len(files))
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name on nil report should be empty, got: %q", r.Name())
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
