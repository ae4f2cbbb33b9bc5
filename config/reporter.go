package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/maruel/natural"

	"px2var/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty report.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f}, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report accumulates everything needed to reproduce a run: configuration,
// logs, source and resulting stylesheets. Safe for concurrent use, nil
// Report quietly ignores all calls.
type Report struct {
	mu      sync.Mutex
	entries map[string]entry
	file    *os.File
}

// Close writes the report archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalize()
}

// Name returns absolute name of the report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store records path to file or directory to be put in the archive on Close.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.entries[name]; exists && old.original != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, path))
	}

	e := entry{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData records data to be put in the archive under requested name. Names
// which are already taken are versioned, so the same stylesheet could be
// stored more than once.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e := entry{data: bytes.Clone(data), stamp: time.Now()}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}
	r.entries[name] = e
}

func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names, manifest := prepareManifest(r.entries)
	if err := saveFile(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if e.data != nil {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(e.actual)
		if err != nil {
			// file never materialized, it is listed in manifest anyway
			continue
		}
		switch {
		case info.Mode().IsRegular():
			if err := saveFileFrom(arc, name, e.actual, info.ModTime()); err != nil {
				return err
			}
		case info.Mode().IsDir():
			if err := saveDir(arc, name, e.actual); err != nil {
				return err
			}
		}
	}
	return nil
}

// prepareManifest lists entries in natural order, so "file10.css" follows
// "file9.css".
func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	if len(entries) == 0 {
		return nil, buf
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))

	now := time.Now()
	for _, k := range keys {
		e := entries[k]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", e.stamp.UTC().Format(time.UnixDate), k, e.original, e.actual)
	}
	return keys, buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func saveFileFrom(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

func saveDir(dst *zip.Writer, name, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return saveFileFrom(dst, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
	})
}
