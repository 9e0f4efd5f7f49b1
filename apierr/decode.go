package apierr

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bodrovis/chimpex/propbag"
	"go.uber.org/zap"
)

var (
	// ErrBagPanic wraps a panic raised by a Bag implementation while reading a key.
	ErrBagPanic = errors.New("property bag panicked")
	// ErrSinkPanic wraps a panic raised by a Sink.
	ErrSinkPanic = errors.New("diagnostic sink panicked")
)

// decodeOrder is the order keys are read and reported in.
var decodeOrder = []string{KeyDetail, KeyTitle, KeyType, KeyStatus, KeyInstance, KeyErrors}

// Decoder turns property bags into ProblemDetail values and reports each one
// to its diagnostic sinks. Safe for concurrent use if its sinks are.
type Decoder struct {
	trace  Sink
	stream Sink
	log    *zap.Logger
}

type DecoderOption func(*Decoder)

// WithTraceSink replaces the trace sink (default: ZapSink on zap.L()).
func WithTraceSink(s Sink) DecoderOption {
	return func(d *Decoder) { d.trace = s }
}

// WithErrorSink replaces the error-stream sink (default: background writer on stderr).
func WithErrorSink(s Sink) DecoderOption {
	return func(d *Decoder) { d.stream = s }
}

// WithLogger sets the logger used for decoder debug output.
func WithLogger(l *zap.Logger) DecoderOption {
	return func(d *Decoder) { d.log = l }
}

var (
	stderrSink     = sync.OnceValue(func() *StreamSink { return NewStreamSink(os.Stderr, 0) })
	defaultDecoder = sync.OnceValue(func() *Decoder { return NewDecoder() })
)

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.trace == nil {
		d.trace = ZapSink{}
	}
	if d.stream == nil {
		d.stream = stderrSink()
	}
	return d
}

// Decode decodes bag with the default decoder. It never fails: fields that
// are missing or of the wrong type keep their zero value.
func Decode(bag propbag.Bag) ProblemDetail {
	return defaultDecoder().Decode(bag)
}

// Report describes how a decode went, key by key.
type Report struct {
	Line   string           // diagnostic line sent to the sinks
	Failed map[string]error // keys that could not be decoded
}

// OK reports whether key decoded.
func (r Report) OK(key string) bool {
	_, failed := r.Failed[key]
	return !failed
}

// Err joins the per-key failures in decode order, nil if none.
func (r Report) Err() error {
	var errs []error
	for _, k := range decodeOrder {
		if err, ok := r.Failed[k]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Decoder) Decode(bag propbag.Bag) ProblemDetail {
	p, _ := d.DecodeReport(bag)
	return p
}

// DecodeReport is Decode plus the per-key outcome.
func (d *Decoder) DecodeReport(bag propbag.Bag) (ProblemDetail, Report) {
	var p ProblemDetail
	rep := Report{Failed: make(map[string]error)}
	if bag == nil {
		bag = propbag.New()
	}

	try := func(key string, fn func() error) {
		if err := guard(ErrBagPanic, fn); err != nil {
			rep.Failed[key] = err
		}
	}
	str := func(key string, dst *string) {
		try(key, func() error {
			s, err := bag.GetString(key)
			if err != nil {
				return err
			}
			*dst = s
			return nil
		})
	}

	str(KeyDetail, &p.Detail)
	str(KeyTitle, &p.Title)
	str(KeyType, &p.Type)
	try(KeyStatus, func() error {
		s, err := bag.GetInt(KeyStatus)
		if err != nil {
			return err
		}
		p.Status = s
		return nil
	})
	str(KeyInstance, &p.Instance)

	var fieldErrs []FieldError
	try(KeyErrors, func() error { return bag.GetValue(KeyErrors, &fieldErrs) })
	errorsOK := rep.OK(KeyErrors)
	if !errorsOK || fieldErrs == nil {
		fieldErrs = []FieldError{}
	}
	p.Errors = fieldErrs

	rep.Line = formatLine(p, errorsOK)
	d.emit(rep.Line)

	if len(rep.Failed) > 0 {
		d.logger().Debug("problem decoded partially",
			zap.Strings("failed", rep.failedKeys()),
			zap.Error(rep.Err()),
		)
	}
	return p, rep
}

func (r Report) failedKeys() []string {
	keys := make([]string, 0, len(r.Failed))
	for _, k := range decodeOrder {
		if _, ok := r.Failed[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// emit hands line to both sinks; sink failures stop here.
func (d *Decoder) emit(line string) {
	for _, s := range []Sink{d.trace, d.stream} {
		if err := guard(ErrSinkPanic, func() error { return s.Write(line) }); err != nil {
			d.logger().Debug("diagnostic sink write failed", zap.Error(err))
		}
	}
}

func (d *Decoder) logger() *zap.Logger {
	if d.log != nil {
		return d.log
	}
	return zap.L()
}

func guard(kind error, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", kind, r)
		}
	}()
	return fn()
}

// formatLine renders Title, Type, Status and Detail, then the field errors
// as "<field> <message>" joined by " : " when withErrors is set.
func formatLine(p ProblemDetail, withErrors bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n Type: %s\n Status: %d\n Detail: %s", p.Title, p.Type, p.Status, p.Detail)
	if withErrors {
		b.WriteString("\n Errors: ")
		for i, fe := range p.Errors {
			if i > 0 {
				b.WriteString(" : ")
			}
			b.WriteString(fe.Field)
			b.WriteByte(' ')
			b.WriteString(fe.Message)
		}
	}
	return b.String()
}
