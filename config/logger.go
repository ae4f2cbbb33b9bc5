package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"px2var/misc"
)

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig `yaml:"file"`
	ConsoleLogger LoggerConfig `yaml:"console"`
}

// Prepare returns configured zap logger for use by the program. When debug
// report is requested file log is always written at debug level and stored in
// the report.
func (conf *LoggingConfig) Prepare(rpt *Report) (*zap.Logger, error) {
	level, mode := conf.FileLogger.Level, conf.FileLogger.Mode
	if rpt != nil {
		level, mode = "debug", "overwrite"
	}

	fileCore, redirected, err := fileCore(conf.FileLogger.Destination, level, mode, rpt)
	if err != nil {
		return nil, err
	}

	cores := append(consoleCores(conf.ConsoleLogger.Level), fileCore)
	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	if len(redirected) != 0 {
		log.Warn("Log file was redirected to new location", zap.String("location", redirected))
	}
	return log.Named(misc.GetAppName()), nil
}

func consoleEncoderConfig(f *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if EnableColorOutput(f) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	}
	return ec
}

// consoleCores splits console output: errors go to stderr, the rest to stdout.
func consoleCores(level string) []zapcore.Core {
	var lowest zapcore.Level
	switch level {
	case "normal":
		lowest = zapcore.InfoLevel
	case "debug":
		lowest = zapcore.DebugLevel
	default:
		return []zapcore.Core{zapcore.NewNopCore()}
	}
	return []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout)), zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lowest <= lvl && lvl < zapcore.ErrorLevel
			})),
		zapcore.NewCore(newShortErrorEncoder(consoleEncoderConfig(os.Stderr)), zapcore.Lock(os.Stderr),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			})),
	}
}

func openLog(fname, mode string) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(fname, flags, 0644)
}

// fileCore opens log destination falling back to temporary file when it is
// not writable, in which case name of the new log is returned.
func fileCore(destination, level, mode string, rpt *Report) (zapcore.Core, string, error) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "normal":
		lvl = zapcore.InfoLevel
	default:
		return zapcore.NewNopCore(), "", nil
	}

	capturePanics(filepath.Dir(destination), mode, rpt)

	var redirected string
	f, err := openLog(destination, mode)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+".*.log"); err != nil {
			return nil, "", fmt.Errorf("unable to access file log destination (%s): %w", destination, err)
		}
		redirected = f.Name()
	}
	rpt.Store("final.log", f.Name())

	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zapcore.NewCore(enc, zapcore.Lock(f), zap.NewAtomicLevelAt(lvl)), redirected, nil
}

// capturePanics directs runtime crash output next to the log, quietly giving
// up when neither there nor in temporary directory file could be created.
func capturePanics(dir, mode string, rpt *Report) {
	f, err := openLog(filepath.Join(dir, misc.GetAppName()+"-panic.log"), mode)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-panic.*.log"); err != nil {
			return
		}
	}
	defer f.Close()

	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err == nil {
		rpt.Store("panic.log", f.Name())
	}
}

// shortErrorEncoder drops errorVerbose (stack traces and multierr details)
// from console errors, full version still goes to the file log.
type shortErrorEncoder struct {
	zapcore.Encoder
}

func newShortErrorEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return shortErrorEncoder{zapcore.NewConsoleEncoder(cfg)}
}

func (c shortErrorEncoder) Clone() zapcore.Encoder {
	return shortErrorEncoder{c.Encoder.Clone()}
}

func (c shortErrorEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	short := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if e, ok := f.Interface.(error); ok && f.Type == zapcore.ErrorType {
			f.Interface = errors.New(e.Error())
		}
		short = append(short, f)
	}
	return c.Encoder.EncodeEntry(ent, short)
}
