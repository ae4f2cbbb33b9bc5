// Package convert implements "convert" command: it finds stylesheets in
// files, directories and zip archives, transforms them and writes results.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"px2var/archive"
	"px2var/css"
	"px2var/state"
	"px2var/transform"
)

// stdio is the command line name of standard input and output.
const stdio = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src != stdio {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
	}

	dst := cmd.Args().Get(1)
	switch {
	case src == stdio:
		if len(dst) != 0 {
			log.Warn("Standard input is always converted to standard output, ignoring destination", zap.String("destination", dst))
		}
		dst = stdio
	case len(dst) == 0:
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst != stdio {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// command line takes precedence over configuration
	if cmd.IsSet("include") {
		env.Cfg.Transform.Include = cmd.String("include")
	}
	if cmd.IsSet("var") {
		env.Cfg.Transform.CSSVariable = cmd.String("var")
	}
	tr, err := env.Cfg.Transform.Prepare(env.Log)
	if err != nil {
		return err
	}

	p := &processor{
		env:     env,
		tr:      tr,
		parser:  css.NewParser(env.Log),
		workers: env.Cfg.Processing.Concurrency(),
		accept:  env.Cfg.Processing.Accepts,
		log:     log,
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		if p.codePage, err = ianaindex.IANA.Encoding(cp); err != nil || p.codePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			p.codePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(p.codePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)),
			zap.Int("stylesheets", p.total), zap.Object("stats", p.stats))
	}(time.Now())

	if src == stdio {
		return p.run(ctx, []stylesheet{stdinStylesheet(cmd.String("from"), env.Stdin, log)}, stdio)
	}
	return p.process(ctx, src, dst)
}

// stylesheet is a unit of work. "source" identifies stylesheet for include
// matching and logging: absolute path of the file or archive path joined with
// the name of entry. "rel" is the output path relative to destination.
type stylesheet struct {
	source string
	rel    string
	open   func() (io.ReadCloser, error)
}

type processor struct {
	env      *state.LocalEnv
	tr       *transform.Transformer
	parser   *css.Parser
	workers  int
	accept   func(name string) bool
	codePage encoding.Encoding
	log      *zap.Logger

	mu    sync.Mutex
	stats transform.Stats
	total int
}

// process determines the input type (directory, archive, path inside archive
// or single file), collects stylesheets and converts them.
func (p *processor) process(ctx context.Context, src, dst string) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			sheets, err := p.collectDir(ctx, head)
			if err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			return p.run(ctx, sheets, dst)
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			sheets, err := p.collectArchive(ctx, head, filepath.ToSlash(tail), "")
			if err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			if len(tail) != 0 && len(sheets) == 0 {
				return fmt.Errorf("input source was not found in archive (%s) => (%s)", head, tail)
			}
			return p.run(ctx, sheets, dst)
		}

		if len(tail) != 0 {
			return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		return p.run(ctx, []stylesheet{fileStylesheet(head, filepath.Base(head))}, dst)
	}
	return fmt.Errorf("input source was not found (%s)", src)
}

// stdinStylesheet names standard input after "from", so include pattern could
// select it.
func stdinStylesheet(from string, r io.Reader, log *zap.Logger) stylesheet {
	s := stylesheet{
		rel: "stdin.css",
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
	if len(from) == 0 {
		log.Warn("Source path for standard input is not specified (--from), include pattern will not match")
		return s
	}
	if abs, err := filepath.Abs(from); err == nil {
		from = abs
	}
	s.source, s.rel = from, filepath.Base(from)
	return s
}

func fileStylesheet(path, rel string) stylesheet {
	return stylesheet{
		source: path,
		rel:    rel,
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// collectDir walks directory tree finding stylesheets and archives with
// stylesheets inside. Symbolic links are not followed.
func (p *processor) collectDir(ctx context.Context, dir string) ([]stylesheet, error) {
	var sheets []stylesheet
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			p.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if p.accept(path) {
			sheets = append(sheets, fileStylesheet(path, rel))
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			p.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isArchive {
			p.log.Debug("Skipping file, not a stylesheet or archive", zap.String("file", path))
			return nil
		}
		found, err := p.collectArchive(ctx, path, "", filepath.Dir(rel))
		if err != nil {
			p.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			return nil
		}
		sheets = append(sheets, found...)
		return nil
	})
	if err == nil && len(sheets) == 0 {
		p.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return sheets, err
}

// collectArchive reads stylesheets under "pathIn" from archive into memory.
// "pathOut" is prepended to entry names to form output paths.
func (p *processor) collectArchive(ctx context.Context, path, pathIn, pathOut string) ([]stylesheet, error) {
	var sheets []stylesheet
	err := archive.Walk(path, pathIn, p.accept, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		r, err := f.Open()
		if err != nil {
			p.log.Error("Unable to read file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			p.log.Error("Unable to read file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}

		name := p.entryName(f)
		sheets = append(sheets, stylesheet{
			source: filepath.Join(arc, filepath.FromSlash(name)),
			rel:    filepath.Join(pathOut, filepath.FromSlash(name)),
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		})
		return nil
	})
	if err == nil && len(sheets) == 0 {
		p.log.Debug("Nothing to process", zap.String("archive", path))
	}
	return sheets, err
}

func (p *processor) entryName(f *zip.File) string {
	name := f.FileHeader.Name
	if p.codePage == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	n, err := p.codePage.NewDecoder().String(name)
	if err != nil {
		cp, _ := ianaindex.IANA.Name(p.codePage)
		p.log.Warn("Unable to convert archive name from specified encoding",
			zap.String("charset", cp), zap.String("path", name), zap.Error(err))
		return name
	}
	return n
}

// run converts stylesheets using up to p.workers goroutines. Failure of a
// single stylesheet does not stop others, but makes the whole run fail.
func (p *processor) run(ctx context.Context, sheets []stylesheet, dst string) error {
	if dst == stdio && len(sheets) > 1 {
		return fmt.Errorf("%d stylesheets found, standard output could only receive one", len(sheets))
	}
	slices.SortStableFunc(sheets, func(a, b stylesheet) int {
		switch {
		case natural.Less(a.rel, b.rel):
			return -1
		case natural.Less(b.rel, a.rel):
			return 1
		}
		return 0
	})

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, s := range sheets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.convert(s, dst); err != nil {
				p.log.Error("Unable to process stylesheet", zap.String("source", s.source), zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("unable to process %d of %d stylesheet(s)", failed, len(sheets))
	}
	return nil
}

// convert processes single stylesheet.
func (p *processor) convert(s stylesheet, dst string) (rerr error) {
	var (
		outputName string
		stats      transform.Stats
	)

	p.log.Debug("Conversion starting", zap.String("from", s.source))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			p.log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
			return
		}
		if rerr == nil {
			p.log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)),
				zap.String("from", s.source), zap.String("to", outputName), zap.Object("stats", stats))
		}
	}(time.Now())

	r, err := s.open()
	if err != nil {
		return err
	}
	data, enc, err := readStylesheet(r)
	r.Close()
	if err != nil {
		return err
	}
	if enc != encUnknown {
		p.log.Debug("Stylesheet converted to UTF-8", zap.String("from", s.source), zap.Stringer("encoding", enc))
	}

	sheet, err := p.parser.Parse(data, s.source)
	if err != nil {
		return err
	}
	if stats, err = p.tr.Process(sheet); err != nil {
		return err
	}
	result := sheet.String()

	p.mu.Lock()
	p.stats.Add(stats)
	p.total++
	p.mu.Unlock()

	reportName := filepath.ToSlash(s.rel)
	p.env.Rpt.StoreData("source/"+reportName, data)
	p.env.Rpt.StoreData("result/"+reportName, []byte(result))

	if dst == stdio {
		outputName = "STDOUT"
		_, err := io.WriteString(p.env.Stdout, result)
		return err
	}

	outputName = buildOutputPath(s.rel, dst, p.env)
	if _, err := os.Stat(outputName); err == nil {
		if !p.env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		p.log.Debug("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(outputName, []byte(result), 0644); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}
