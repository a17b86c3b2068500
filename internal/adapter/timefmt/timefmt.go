// Package timefmt converts syslog timestamps using strptime(3)/strftime(3) style
// layouts, which is what users of syslog tooling write on the command line.
package timefmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultParseLayout matches "Mon Jun 24 18:12:50 2019".
const DefaultParseLayout = "%a %b %d %H:%M:%S %Y"

var (
	ErrNoMatch              = errors.New("value does not match layout")
	ErrUnsupportedDirective = errors.New("unsupported layout directive")
)

var (
	weekdays    = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	months      = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	compositeOf = map[byte]string{
		'T': "%H:%M:%S",
		'R': "%H:%M",
		'D': "%m/%d/%y",
		'F': "%Y-%m-%d",
		'r': "%I:%M:%S %p",
		'c': "%a %b %e %H:%M:%S %Y",
	}
)

// Format renders t with a strftime layout. An empty layout renders epoch seconds.
func Format(layout string, t time.Time) string {
	if layout == "" {
		return strconv.FormatInt(t.Unix(), 10)
	}
	return strftime.Format(layout, t)
}

// Parse reads a timestamp described by layout from the start of value.
// It returns the parsed time and the number of bytes consumed; text after the
// timestamp is left for the caller. Date components missing from the layout
// default to 1900-01-01 00:00:00, and the result is interpreted in loc unless the
// layout carries a zone offset (%z) or epoch seconds (%s).
//
// Whitespace in the layout matches any run of whitespace, including none.
// Weekday names (%a, %A) are accepted but not required since the date determines them.
func Parse(layout, value string, loc *time.Location) (time.Time, int, error) {
	p := parser{value: value, year: 1900, month: 1, day: 1, yday: -1, century: -1, yy: -1}
	if err := p.run(layout); err != nil {
		return time.Time{}, 0, err
	}
	return p.time(loc), p.pos, nil
}

type parser struct {
	value string
	pos   int

	year, month, day int
	hour, min, sec   int
	yday             int
	century, yy      int
	haveDate         bool

	hour12, pm, havePM bool

	offset *int
	epoch  *int64
}

func (p *parser) fail(directive string) error {
	rest := p.value[p.pos:]
	if len(rest) > 16 {
		rest = rest[:16] + "..."
	}
	return fmt.Errorf("%w: %s at %q", ErrNoMatch, directive, rest)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.value) && isSpace(p.value[p.pos]) {
		p.pos++
	}
}

func (p *parser) run(layout string) error {
	for i := 0; i < len(layout); i++ {
		c := layout[i]
		if isSpace(c) {
			p.skipSpace()
			continue
		}
		if c != '%' {
			if p.pos >= len(p.value) || p.value[p.pos] != c {
				return p.fail(fmt.Sprintf("literal %q", c))
			}
			p.pos++
			continue
		}

		i++
		// E and O are locale modifiers; the C locale ignores them.
		for i < len(layout) && (layout[i] == 'E' || layout[i] == 'O') {
			i++
		}
		if i >= len(layout) {
			return fmt.Errorf("%w: trailing '%%'", ErrUnsupportedDirective)
		}
		if err := p.directive(layout[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) directive(d byte) error {
	if sub, ok := compositeOf[d]; ok {
		return p.run(sub)
	}

	var err error
	switch d {
	case '%':
		if p.pos >= len(p.value) || p.value[p.pos] != '%' {
			return p.fail("literal '%'")
		}
		p.pos++
	case 'n', 't':
		p.skipSpace()
	case 'a', 'A':
		p.name(weekdays)
	case 'b', 'B', 'h':
		m := p.name(months)
		if m < 0 {
			return p.fail("month name")
		}
		p.month, p.haveDate = m+1, true
	case 'd', 'e':
		p.day, err = p.number("%d", 1, 31, 2)
		p.haveDate = true
	case 'm':
		p.month, err = p.number("%m", 1, 12, 2)
		p.haveDate = true
	case 'Y':
		p.year, err = p.number("%Y", 0, 9999, 4)
	case 'y':
		p.yy, err = p.number("%y", 0, 99, 2)
	case 'C':
		p.century, err = p.number("%C", 0, 99, 2)
	case 'j':
		p.yday, err = p.number("%j", 1, 366, 3)
	case 'H', 'k':
		p.hour, err = p.number("%H", 0, 23, 2)
		p.hour12 = false
	case 'I', 'l':
		p.hour, err = p.number("%I", 1, 12, 2)
		p.hour12 = true
	case 'M':
		p.min, err = p.number("%M", 0, 59, 2)
	case 'S':
		p.sec, err = p.number("%S", 0, 61, 2)
	case 'p', 'P':
		err = p.meridiem()
	case 's':
		err = p.seconds()
	case 'z':
		err = p.zone()
	case 'Z':
		for p.pos < len(p.value) && isAlpha(p.value[p.pos]) {
			p.pos++
		}
	default:
		return fmt.Errorf("%w '%%%c'", ErrUnsupportedDirective, d)
	}
	return err
}

// name matches the longest full or three-letter abbreviated name, case-insensitively,
// and returns its index or -1.
func (p *parser) name(names []string) int {
	rest := p.value[p.pos:]
	for i, n := range names {
		if len(rest) >= len(n) && strings.EqualFold(rest[:len(n)], n) {
			p.pos += len(n)
			return i
		}
	}
	for i, n := range names {
		if len(rest) >= 3 && strings.EqualFold(rest[:3], n[:3]) {
			p.pos += 3
			return i
		}
	}
	return -1
}

func (p *parser) number(directive string, lo, hi, width int) (int, error) {
	for p.pos < len(p.value) && p.value[p.pos] == ' ' {
		p.pos++
	}
	start := p.pos
	n := 0
	for p.pos < len(p.value) && p.pos-start < width && isDigit(p.value[p.pos]) {
		n = n*10 + int(p.value[p.pos]-'0')
		p.pos++
	}
	if p.pos == start || n < lo || n > hi {
		p.pos = start
		return 0, p.fail(directive)
	}
	return n, nil
}

func (p *parser) meridiem() error {
	rest := p.value[p.pos:]
	switch {
	case len(rest) >= 2 && strings.EqualFold(rest[:2], "AM"):
		p.pm = false
	case len(rest) >= 2 && strings.EqualFold(rest[:2], "PM"):
		p.pm = true
	default:
		return p.fail("%p")
	}
	p.havePM = true
	p.pos += 2
	return nil
}

func (p *parser) seconds() error {
	start := p.pos
	if p.pos < len(p.value) && p.value[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.value) && isDigit(p.value[p.pos]) {
		p.pos++
	}
	n, err := strconv.ParseInt(p.value[start:p.pos], 10, 64)
	if err != nil {
		p.pos = start
		return p.fail("%s")
	}
	p.epoch = &n
	return nil
}

// zone accepts Z, +hh, +hhmm and +hh:mm.
func (p *parser) zone() error {
	for p.pos < len(p.value) && p.value[p.pos] == ' ' {
		p.pos++
	}
	if p.pos < len(p.value) && p.value[p.pos] == 'Z' {
		p.pos++
		off := 0
		p.offset = &off
		return nil
	}
	if p.pos >= len(p.value) || (p.value[p.pos] != '+' && p.value[p.pos] != '-') {
		return p.fail("%z")
	}
	start := p.pos
	sign := 1
	if p.value[p.pos] == '-' {
		sign = -1
	}
	p.pos++

	digits := make([]int, 0, 4)
	for p.pos < len(p.value) && len(digits) < 4 {
		c := p.value[p.pos]
		if c == ':' && len(digits) == 2 {
			p.pos++
			continue
		}
		if !isDigit(c) {
			break
		}
		digits = append(digits, int(c-'0'))
		p.pos++
	}
	if len(digits) != 2 && len(digits) != 4 {
		p.pos = start
		return p.fail("%z")
	}
	hh := digits[0]*10 + digits[1]
	mm := 0
	if len(digits) == 4 {
		mm = digits[2]*10 + digits[3]
	}
	if hh > 14 || mm > 59 {
		p.pos = start
		return p.fail("%z")
	}
	off := sign * (hh*3600 + mm*60)
	p.offset = &off
	return nil
}

func (p *parser) time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if p.epoch != nil {
		return time.Unix(*p.epoch, 0).In(loc)
	}
	if p.offset != nil {
		loc = time.FixedZone("", *p.offset)
	}

	year := p.year
	switch {
	case p.century >= 0 && p.yy >= 0:
		year = p.century*100 + p.yy
	case p.century >= 0:
		year = p.century * 100
	case p.yy >= 0 && p.yy < 69:
		year = 2000 + p.yy
	case p.yy >= 0:
		year = 1900 + p.yy
	}

	hour := p.hour
	if p.hour12 {
		hour %= 12
		if p.havePM && p.pm {
			hour += 12
		}
	}

	// time.Date normalizes out-of-range values the way mktime(3) does.
	if p.yday > 0 && !p.haveDate {
		return time.Date(year, time.January, p.yday, hour, p.min, p.sec, 0, loc)
	}
	return time.Date(year, time.Month(p.month), p.day, hour, p.min, p.sec, 0, loc)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
