// Package logging provides the slog handler used by the toroid commands.
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Options configures a Handler.
type Options struct {
	Level     slog.Leveler
	AddSource bool
	// Indent pretty prints each record over several lines.
	Indent bool
}

// Handler is a slog.Handler that writes one JSON object per record. Keys keep
// the order they were logged in: time, level, msg, source, then attributes.
//
// It is meant for CLI logs, not throughput.
type Handler struct {
	w    io.Writer
	mu   *sync.Mutex
	opts Options

	attrs  []groupedAttr
	groups []string
}

// groupedAttr remembers the groups that were open when WithAttrs was called.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func NewHandler(w io.Writer, opts *Options) *Handler {
	h := &Handler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	root := object{
		{"time", when.Format(time.RFC3339Nano)},
		{"level", r.Level.String()},
		{"msg", r.Message},
	}
	if h.opts.AddSource {
		if src := sourceFromPC(r.PC); src != "" {
			root = append(root, field{"source", src})
		}
	}

	for _, ga := range h.attrs {
		root.in(ga.groups).add(ga.attr)
	}
	if r.NumAttrs() > 0 {
		dst := root.in(h.groups)
		r.Attrs(func(a slog.Attr) bool {
			dst.add(a)
			return true
		})
	}

	var (
		b   []byte
		err error
	)
	if h.opts.Indent {
		b, err = json.MarshalIndent(root, "", "  ")
	} else {
		b, err = json.Marshal(root)
	}
	if err != nil {
		b = []byte(`{"time":` + strconv.Quote(root[0].value.(string)) + `,"level":` + strconv.Quote(r.Level.String()) + `,"msg":` + strconv.Quote(r.Message) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]groupedAttr(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, groupedAttr{groups: h.groups, attr: a})
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

type field struct {
	key   string
	value any
}

// object is a JSON object that remembers insertion order.
type object []field

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// in walks down the named groups.
func (o *object) in(groups []string) *object {
	dst := o
	for _, g := range groups {
		dst = dst.child(g)
	}
	return dst
}

// child returns the nested object stored under key, creating it if needed.
func (o *object) child(key string) *object {
	for i := range *o {
		if (*o)[i].key == key {
			if c, ok := (*o)[i].value.(*object); ok {
				return c
			}
		}
	}
	c := &object{}
	*o = append(*o, field{key, c})
	return c
}

func (o *object) add(a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}
		dst := o
		if a.Key != "" {
			dst = o.child(a.Key)
		}
		for _, ga := range group {
			dst.add(ga)
		}
		return
	}
	*o = append(*o, field{a.Key, valueToAny(a.Value)})
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
		return v.Any()
	default:
		return v.String()
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New builds a logger that writes to w at the named level. Debug loggers
// include the source location.
func New(w io.Writer, level string, pretty bool) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(NewHandler(w, &Options{Level: l, AddSource: l <= slog.LevelDebug, Indent: pretty})), nil
}

// Setup installs a Handler on stderr as the default logger.
func Setup(level string, pretty bool) (*slog.Logger, error) {
	logger, err := New(os.Stderr, level, pretty)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
