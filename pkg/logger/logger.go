// Package logger configures zerolog for cascade processes from the startup switches:
//
//	cascade.mute / CASCADE_MUTE   silence every log line
//	cascade.log.methods           add the calling file and line to each line
//	cascade.log                   write to this file instead of the console
//	cascade.log.max.size          rotate the file after this many megabytes (default 100)
//	cascade.log.level             minimum level (debug, info, warn, error)
//
// Switches are read from -D system properties first and then from the process environment.
package logger

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/animalet/cascade-go/pkg/properties"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	MuteProperty    = "cascade.mute"
	MuteVariable    = "CASCADE_MUTE"
	MethodsProperty = "cascade.log.methods"
	FileProperty    = "cascade.log"
	LevelProperty   = "cascade.log.level"
	MaxSizeProperty = "cascade.log.max.size"

	timeFormat     = "2006-01-02 15:04:05"
	maxLogBackups  = 5
	maxLogAgeDays  = 28
	logPermissions = 0o644
)

// Settings selects how logs are written.
type Settings struct {
	Mute    bool
	Methods bool
	File    string
	// MaxSize is the rotation threshold in megabytes; zero keeps the rotation default.
	MaxSize int
	Level   zerolog.Level
	NoColor bool
}

// SettingsFrom reads the switches from system properties and the process environment.
// An unknown level keeps the default (info) and is reported as an error.
func SettingsFrom(sysProps map[string]string, lookupEnv func(string) (string, bool)) (Settings, error) {
	get := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if v, ok := sysProps[key]; ok {
				return v, true
			}
		}
		if lookupEnv == nil {
			return "", false
		}
		for _, key := range keys {
			if v, ok := lookupEnv(key); ok {
				return v, true
			}
		}
		return "", false
	}

	s := Settings{Level: zerolog.InfoLevel}
	if v, ok := get(MuteProperty, MuteVariable); ok {
		s.Mute = properties.IsTrue(v)
	}
	if v, ok := get(MethodsProperty); ok {
		s.Methods = properties.IsTrue(v)
	}
	if v, ok := get(FileProperty); ok {
		s.File = strings.TrimSpace(v)
	}
	if v, ok := get(MaxSizeProperty); ok && strings.TrimSpace(v) != "" {
		size, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || size <= 0 {
			return s, errors.Errorf("invalid %s %q: expected a positive number of megabytes", MaxSizeProperty, v)
		}
		s.MaxSize = size
	}
	if v, ok := get(LevelProperty); ok && strings.TrimSpace(v) != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			return s, errors.Wrapf(err, "invalid %s", LevelProperty)
		}
		s.Level = level
	}
	return s, nil
}

// New builds a logger for s. Console output goes to console through zerolog's ConsoleWriter;
// a configured File is appended to and rotated by size, and the rotating writer is returned
// as the closer. Failing to open the file is the only error.
func New(s Settings, console io.Writer) (zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	if s.File != "" {
		// The rotating writer opens lazily; check the destination now.
		// #nosec G304 -- the log destination is an operator choice
		f, err := os.OpenFile(s.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logPermissions)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrapf(err, "failed to open log file %q", s.File)
		}
		_ = f.Close()

		rolling := &lumberjack.Logger{
			Filename:   s.File,
			MaxSize:    s.MaxSize,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
		out, closer = rolling, rolling
	} else {
		out = zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    s.NoColor,
			TimeFormat: timeFormat,
		}
	}

	level := s.Level
	if s.Mute {
		level = zerolog.Disabled
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if s.Methods {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), closer, nil
}

// Setup builds the logger for s and installs it as the global zerolog logger.
func Setup(s Settings, console io.Writer) (io.Closer, error) {
	logger, closer, err := New(s, console)
	if err != nil {
		return nil, err
	}
	log.Logger = logger
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
