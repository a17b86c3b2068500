package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/V4T54L/syslogfc/internal/adapter/entryspec"
	"github.com/V4T54L/syslogfc/internal/adapter/timefmt"
	"github.com/V4T54L/syslogfc/internal/domain"
)

var (
	ErrDelimiterNotFound  = errors.New("delimiter not found")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrInvalidValue       = errors.New("invalid value")
)

// DecodeError describes why a single line could not be decoded.
type DecodeError struct {
	Line  int
	Field string // param name of the failing field
	Value string // rejected value, set for ErrInvalidValue
	Delim byte   // missing delimiter, set for ErrDelimiterNotFound
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case errors.Is(e.Err, ErrInvalidValue):
		return fmt.Sprintf("line %d: invalid value %q for field '%s'", e.Line, e.Value, e.Field)
	case errors.Is(e.Err, ErrDelimiterNotFound):
		return fmt.Sprintf("line %d: failed to parse '%s' field: delimiter %q not found", e.Line, e.Field, e.Delim)
	default:
		return fmt.Sprintf("line %d: failed to parse '%s' field: %v", e.Line, e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Options configures value conversion. It is read-only once passed to New.
type Options struct {
	// TimestampLayout is a strptime(3) style layout for Time fields.
	TimestampLayout string
	// Location is used for timestamps without a zone; nil means time.Local.
	Location *time.Location
}

// Decoder turns lines into records following a compiled entry specification.
// A Decoder keeps the record ordinal and is not safe for concurrent use.
type Decoder struct {
	spec   *entryspec.Spec
	fields []domain.Descriptor
	opts   Options
	num    uint64
}

// New creates a Decoder for spec.
func New(spec *entryspec.Spec, opts Options) *Decoder {
	if opts.TimestampLayout == "" {
		opts.TimestampLayout = timefmt.DefaultParseLayout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Decoder{spec: spec, fields: spec.Fields(), opts: opts}
}

// Spec returns the compiled specification the decoder follows.
func (d *Decoder) Spec() *entryspec.Spec { return d.spec }

// Decoded returns the number of lines decoded successfully so far.
func (d *Decoder) Decoded() uint64 { return d.num }

// Decode decodes one line. lineNo is only used in errors.
// The returned record owns its values; line may be reused after Decode returns.
// On error no record is produced and the ordinal is left unchanged.
func (d *Decoder) Decode(line []byte, lineNo int) (*domain.Record, error) {
	fields := make([]domain.Field, len(d.fields))
	cur := 0
	for i, desc := range d.fields {
		v, next, err := d.decodeField(line, cur, desc)
		if err != nil {
			err.Line = lineNo
			err.Field = desc.Info.ParamName
			return nil, err
		}
		fields[i] = domain.Field{Descriptor: desc, Value: v}
		cur = next
	}

	d.num++
	return &domain.Record{Num: d.num, Mask: d.spec.Mask(), Fields: fields}, nil
}

func (d *Decoder) decodeField(line []byte, cur int, desc domain.Descriptor) (domain.Value, int, *DecodeError) {
	if desc.Start != 0 {
		idx := bytes.IndexByte(line[cur:], desc.Start)
		if idx < 0 {
			return domain.Value{}, 0, &DecodeError{Delim: desc.Start, Err: ErrDelimiterNotFound}
		}
		cur += idx + 1
	}
	if !desc.Flags.Has(domain.FlagNoTrim) {
		cur = skipSpace(line, cur)
	}

	v := domain.Value{Type: desc.Info.Type}
	var raw string
	switch desc.Info.Type {
	case domain.TypeTime:
		t, n, err := timefmt.Parse(d.opts.TimestampLayout, string(line[cur:]), d.opts.Location)
		if err != nil {
			return v, 0, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedTimestamp, err)}
		}
		raw = string(line[cur : cur+n])
		cur += n
		if desc.Stop != 0 && cur < len(line) && line[cur] == desc.Stop {
			cur++
		}
		v.Time, v.Unix = t, t.Unix()

	default:
		s, next, ok := scanString(line, cur, desc)
		if !ok {
			return v, 0, &DecodeError{Delim: desc.Stop, Err: ErrDelimiterNotFound}
		}
		raw, cur = s, next
		switch desc.Info.Type {
		case domain.TypeInteger:
			v.Int = parseInt(s)
		case domain.TypeUnsignedInteger:
			v.Uint = parseUint(s)
		default:
			v.Str = s
		}
	}

	if !desc.Flags.Has(domain.FlagNoValidate) && desc.Info.Validator != nil && !desc.Info.Validator(raw) {
		return v, 0, &DecodeError{Value: raw, Err: ErrInvalidValue}
	}
	return v, cur, nil
}

// scanString captures the value from cur up to the field's stop delimiter, or up
// to the end of the line when the field has none. It returns the value and the
// offset just past the delimiter.
func scanString(line []byte, cur int, desc domain.Descriptor) (string, int, bool) {
	end := len(line)
	next := len(line)
	if desc.Stop != 0 {
		// With NoTrim the value keeps its leading whitespace, but a whitespace
		// stop delimiter must not match inside it.
		from := cur
		if desc.Flags.Has(domain.FlagNoTrim) {
			from = skipSpace(line, cur)
		}
		idx := bytes.IndexByte(line[from:], desc.Stop)
		if idx < 0 {
			return "", 0, false
		}
		end = from + idx
		next = end + 1
	}
	return strings.TrimRight(string(line[cur:end]), "\r\n"), next, true
}

func skipSpace(line []byte, i int) int {
	for i < len(line) && isSpace(line[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
