// Package logging provides the structured log sink all engine components
// write to. A Sink fans each record out to one output per configured
// LogConfig entry; every output applies its own level threshold, filters
// and format, and writes each record atomically as a single line.
package logging

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/powerwordtree/dynwatch/internal/config"
)

// Record is one structured log record.
type Record struct {
	Time    time.Time
	Level   zerolog.Level
	Watcher string
	Group   string
	Action  string
	RunID   string
	Message string
	Err     error
}

// Sink fans records out to the configured outputs.
type Sink struct {
	outs    []*output
	closers []io.Closer
}

type output struct {
	low        zerolog.Logger // records below WARNING
	high       zerolog.Logger // WARNING and above
	lowRaw     io.Writer
	highRaw    io.Writer
	template   string // custom text template; empty = zerolog rendering
	dateFormat string
	minLevel   zerolog.Level
	levels     map[zerolog.Level]bool
	names      []string
	msgs       []*regexp.Regexp
}

// New builds a Sink from the configured log entries.
func New(cfgs []config.LogConfig) (*Sink, error) {
	s := &Sink{}
	for i, cfg := range cfgs {
		out, closer, err := newOutput(cfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("logs[%d]: %w", i, err)
		}
		s.outs = append(s.outs, out)
		if closer != nil {
			s.closers = append(s.closers, closer)
		}
	}
	return s, nil
}

// Discard returns a Sink with no outputs.
func Discard() *Sink {
	return &Sink{}
}

// Close releases any file outputs.
func (s *Sink) Close() {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
}

func newOutput(cfg config.LogConfig) (*output, io.Closer, error) {
	minLevel, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	o := &output{
		dateFormat: cfg.DateFormat,
		minLevel:   minLevel,
		template:   cfg.TextFormat,
	}

	var low, high io.Writer
	var closer io.Closer
	switch cfg.Output {
	case "std":
		low, high = zerolog.SyncWriter(os.Stdout), zerolog.SyncWriter(os.Stderr)
	case "stdout":
		low = zerolog.SyncWriter(os.Stdout)
		high = low
	case "stderr":
		low = zerolog.SyncWriter(os.Stderr)
		high = low
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		low = zerolog.SyncWriter(file)
		high = low
		closer = file
	}
	o.lowRaw, o.highRaw = low, high

	switch cfg.OutputFormat {
	case "json":
		o.low = zerolog.New(low)
		o.high = zerolog.New(high)
	case "text":
		// A custom template is rendered by hand in emitTemplate; the
		// default text form goes through zerolog's console writer.
		if o.template == "" {
			o.low = zerolog.New(console(low))
			o.high = zerolog.New(console(high))
		}
	default:
		return nil, closer, fmt.Errorf("unknown output_format %q", cfg.OutputFormat)
	}

	if len(cfg.LevelFilters) > 0 {
		o.levels = make(map[zerolog.Level]bool, len(cfg.LevelFilters))
		for _, name := range cfg.LevelFilters {
			lvl, err := ParseLevel(name)
			if err != nil {
				return nil, closer, err
			}
			o.levels[lvl] = true
		}
	}
	o.names = append(o.names, cfg.NameFilters...)
	for _, pat := range cfg.MsgFilters {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, closer, fmt.Errorf("msg_filters: %w", err)
		}
		o.msgs = append(o.msgs, re)
	}
	return o, closer, nil
}

// console renders records as text. The timestamp field arrives
// preformatted, so it passes through FormatPartValueByName untouched.
func console(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{"timestamp", zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatPartValueByName: func(i interface{}, name string) string {
			return fmt.Sprintf("%v", i)
		},
	}
}

// Write dispatches a record to every output that accepts it.
func (s *Sink) Write(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	for _, o := range s.outs {
		if o.accepts(rec) {
			o.emit(rec)
		}
	}
}

func (o *output) accepts(rec Record) bool {
	if rec.Level < o.minLevel {
		return false
	}
	if o.levels != nil && !o.levels[rec.Level] {
		return false
	}
	if len(o.names) > 0 {
		found := false
		for _, suffix := range o.names {
			if strings.HasSuffix(rec.Watcher, suffix) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(o.msgs) > 0 {
		found := false
		for _, re := range o.msgs {
			if re.MatchString(rec.Message) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (o *output) emit(rec Record) {
	if o.template != "" {
		o.emitTemplate(rec)
		return
	}
	lg := o.low
	if rec.Level >= zerolog.WarnLevel {
		lg = o.high
	}
	ev := lg.WithLevel(rec.Level)
	ev.Str("timestamp", rec.Time.Format(o.dateFormat))
	if rec.Watcher != "" {
		ev.Str("watcher", rec.Watcher)
	}
	if rec.Group != "" {
		ev.Str("group", rec.Group)
	}
	if rec.Action != "" {
		ev.Str("action", rec.Action)
	}
	if rec.RunID != "" {
		ev.Str("run_id", rec.RunID)
	}
	if rec.Err != nil {
		ev.Err(rec.Err)
	}
	ev.Msg(rec.Message)
}

var templateReplacements = []struct {
	key string
	get func(Record, string) string
}{
	{"{timestamp}", func(r Record, df string) string { return r.Time.Format(df) }},
	{"{level}", func(r Record, _ string) string { return strings.ToUpper(r.Level.String()) }},
	{"{watcher}", func(r Record, _ string) string { return r.Watcher }},
	{"{group}", func(r Record, _ string) string { return r.Group }},
	{"{action}", func(r Record, _ string) string { return r.Action }},
	{"{run_id}", func(r Record, _ string) string { return r.RunID }},
	{"{message}", func(r Record, _ string) string { return r.Message }},
}

func (o *output) emitTemplate(rec Record) {
	line := o.template
	for _, tr := range templateReplacements {
		line = strings.ReplaceAll(line, tr.key, tr.get(rec, o.dateFormat))
	}
	w := o.lowRaw
	if rec.Level >= zerolog.WarnLevel {
		w = o.highRaw
	}
	// Single Write call per record keeps concurrent watcher output intact.
	w.Write([]byte(line + "\n"))
}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARNING", "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return zerolog.FatalLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}
