package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"px2var/css"
	"px2var/state"
)

// Tree prints parsed stylesheet structure, optionally after transformation.
func Tree(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("tree")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var s stylesheet
	if src == stdio {
		s = stdinStylesheet(cmd.String("from"), env.Stdin, log)
	} else {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
		s = fileStylesheet(src, filepath.Base(src))
	}

	r, err := s.open()
	if err != nil {
		return err
	}
	data, _, err := readStylesheet(r)
	r.Close()
	if err != nil {
		return err
	}

	sheet, err := css.NewParser(env.Log).Parse(data, s.source)
	if err != nil {
		return err
	}

	if cmd.Bool("transform") {
		tr, err := env.Cfg.Transform.Prepare(env.Log)
		if err != nil {
			return err
		}
		stats, err := tr.Process(sheet)
		if err != nil {
			return err
		}
		log.Debug("Stylesheet transformed", zap.String("source", s.source), zap.Object("stats", stats))
	}

	out := env.Stdout
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.WriteString(out, sheet.Tree().String()); err != nil {
		return fmt.Errorf("unable to write tree: %w", err)
	}
	return nil
}
