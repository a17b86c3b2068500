package entryspec

import (
	"errors"
	"fmt"

	"github.com/V4T54L/syslogfc/internal/domain"
)

// Default is the layout of a classic syslog file line:
// <timestamp> <facility>.<priority> <tag>: <message>
const Default = "%T %F.%P %G: %_M"

const (
	escape = '%'

	modDrop       = '!'
	modNoTrim     = '_'
	modNoValidate = '@'
)

var (
	ErrUnknownSpecifier = errors.New("unknown field specifier")
	ErrDuplicateField   = errors.New("duplicate field")
	ErrMissingSeparator = errors.New("no separator between two specifiers")
)

// CompileError reports where in the specification compilation failed.
type CompileError struct {
	Spec string
	Pos  int  // byte offset of the offending character
	Char byte // offending character, 0 at end of specification
	Err  error
}

func (e *CompileError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("entry spec %q: %v at end of specification", e.Spec, e.Err)
	}
	return fmt.Sprintf("entry spec %q: %v '%c' at offset %d", e.Spec, e.Err, e.Char, e.Pos)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Spec is a compiled entry specification. It is immutable once compiled.
type Spec struct {
	source string
	fields []domain.Descriptor
	mask   domain.FieldMask
}

// Compile compiles spec against the default field registry.
func Compile(spec string) (*Spec, error) {
	return CompileWith(domain.DefaultRegistry, spec)
}

// CompileWith compiles spec, resolving specifier letters through reg.
func CompileWith(reg domain.Registry, spec string) (*Spec, error) {
	c := compiler{reg: reg, src: spec}
	if err := c.run(); err != nil {
		return nil, err
	}
	return &Spec{source: spec, fields: c.fields, mask: c.mask}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(spec string) *Spec {
	s, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Spec) String() string { return s.source }

// Fields returns a copy of the compiled descriptors in layout order.
func (s *Spec) Fields() []domain.Descriptor {
	out := make([]domain.Descriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of compiled descriptors, dropped ones included.
func (s *Spec) Len() int { return len(s.fields) }

// Field returns the i-th descriptor.
func (s *Spec) Field(i int) domain.Descriptor { return s.fields[i] }

// Mask returns the set of non-dropped field kinds.
func (s *Spec) Mask() domain.FieldMask { return s.mask }

// Template returns an empty record with this layout, for renderer headers.
func (s *Spec) Template() *domain.Record { return domain.NewTemplate(s.fields, s.mask) }

type compiler struct {
	reg    domain.Registry
	src    string
	pos    int
	fields []domain.Descriptor
	mask   domain.FieldMask
	start  byte // pending start delimiter for the next field
}

func (c *compiler) fail(pos int, err error) error {
	var ch byte
	if pos < len(c.src) {
		ch = c.src[pos]
	}
	return &CompileError{Spec: c.src, Pos: pos, Char: ch, Err: err}
}

// open returns the most recent descriptor still waiting for its stop delimiter.
func (c *compiler) open() *domain.Descriptor {
	if n := len(c.fields); n > 0 && c.fields[n-1].Stop == 0 {
		return &c.fields[n-1]
	}
	return nil
}

func (c *compiler) literal(ch byte) {
	if f := c.open(); f != nil {
		f.Stop = ch
		return
	}
	c.start = ch
}

func (c *compiler) run() error {
	for c.pos = 0; c.pos < len(c.src); c.pos++ {
		if ch := c.src[c.pos]; ch != escape {
			c.literal(ch)
			continue
		}
		if err := c.token(); err != nil {
			return err
		}
	}
	return nil
}

func modifier(ch byte) (domain.FieldFlags, bool) {
	switch ch {
	case modDrop:
		return domain.FlagDrop, true
	case modNoTrim:
		return domain.FlagNoTrim, true
	case modNoValidate:
		return domain.FlagNoValidate, true
	}
	return 0, false
}

// token consumes one %<modifiers><letter> token. On return c.pos is at its last byte.
func (c *compiler) token() error {
	var flags domain.FieldFlags
	for {
		c.pos++
		if c.pos >= len(c.src) {
			return c.fail(c.pos, ErrUnknownSpecifier)
		}
		flag, ok := modifier(c.src[c.pos])
		if !ok {
			break
		}
		flags |= flag
	}

	ch := c.src[c.pos]
	if ch == escape {
		// modifiers on an escaped '%' have no field to apply to
		c.literal(escape)
		return nil
	}

	info, ok := c.reg.Lookup(ch)
	if !ok {
		return c.fail(c.pos, ErrUnknownSpecifier)
	}
	if c.open() != nil {
		return c.fail(c.pos, ErrMissingSeparator)
	}
	drop := flags.Has(domain.FlagDrop)
	if !drop && c.mask.Has(info.Kind) {
		return c.fail(c.pos, fmt.Errorf("%w %q", ErrDuplicateField, info.ParamName))
	}
	if !drop {
		c.mask = c.mask.With(info.Kind)
	}

	c.fields = append(c.fields, domain.Descriptor{
		Info:  info,
		Flags: flags,
		Start: c.start,
	})
	c.start = 0
	return nil
}
