package i18n

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/kdsmith18542/localekit/resource"
)

// maxDepth bounds nested message and term references.
const maxDepth = 16

// formatter renders patterns. Printers are created once per locale and shared by concurrent
// resolves.
type formatter struct {
	printers sync.Map // language.Tag -> *message.Printer
}

func newFormatter() *formatter {
	return &formatter{}
}

func (f *formatter) printer(tag language.Tag) *message.Printer {
	if p, ok := f.printers.Load(tag); ok {
		return p.(*message.Printer)
	}
	p, _ := f.printers.LoadOrStore(tag, message.NewPrinter(tag))
	return p.(*message.Printer)
}

// format renders p against the bundle it was found in. It always returns output; problems are
// reported as errors next to it.
func (f *formatter) format(b *Bundle, p *resource.Pattern, args Args) (string, []error) {
	s := &scope{
		bundle:  b,
		printer: f.printer(b.Locale()),
		args:    args,
		active:  make(map[*resource.Pattern]bool),
	}
	out := s.pattern(p)
	return out, s.errs
}

// value is an intermediate result: either a string or a number with formatting options.
//
// Numbers keep their exact argument (int64, uint64 or float64) for rendering; num is only
// used for selection. Numbers render verbatim unless they went through NUMBER().
type value struct {
	str       string
	num       float64
	exact     any
	numeric   bool
	formatted bool
	opts      []number.Option
	// failed marks a value that could not be resolved; selects use their default variant.
	failed bool
}

func stringValue(s string) value {
	return value{str: s}
}

func failedValue(s string) value {
	return value{str: s, failed: true}
}

type scope struct {
	bundle  *Bundle
	printer *message.Printer
	args    Args
	errs    []error
	depth   int
	active  map[*resource.Pattern]bool
}

func (s *scope) errorf(format string, a ...any) {
	s.errs = append(s.errs, fmt.Errorf(format, a...))
}

func (s *scope) pattern(p *resource.Pattern) string {
	if s.depth >= maxDepth {
		s.errorf("too many nested references")
		return "{???}"
	}
	if s.active[p] {
		s.errorf("cyclic reference")
		return "{???}"
	}
	s.active[p] = true
	s.depth++
	defer func() {
		delete(s.active, p)
		s.depth--
	}()

	var sb strings.Builder
	for _, el := range p.Elements {
		switch el := el.(type) {
		case *resource.TextElement:
			sb.WriteString(el.Value)
		case *resource.Placeable:
			sb.WriteString(s.render(s.expr(el.Expr)))
		}
	}
	return sb.String()
}

func (s *scope) render(v value) string {
	if !v.numeric {
		return v.str
	}

	exact := v.exact
	if f, ok := exact.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		exact = int64(f)
	}
	if v.formatted {
		return s.printer.Sprint(number.Decimal(exact, v.opts...))
	}

	if v.str != "" {
		return v.str
	}
	switch n := exact.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(exact)
}

func intValue(n int64) value {
	return value{num: float64(n), exact: n, numeric: true}
}

func uintValue(n uint64) value {
	return value{num: float64(n), exact: n, numeric: true}
}

func floatValue(n float64) value {
	return value{num: n, exact: n, numeric: true}
}

func (s *scope) expr(e resource.Expression) value {
	switch e := e.(type) {
	case *resource.StringLiteral:
		return stringValue(e.Value)

	case *resource.NumberLiteral:
		v := floatValue(e.Value)
		// A literal renders as written.
		v.str = e.Raw
		if i := strings.IndexByte(e.Raw, '.'); i >= 0 {
			v.opts = []number.Option{number.MinFractionDigits(len(e.Raw) - i - 1)}
		}
		return v

	case *resource.VariableRef:
		arg, ok := s.args[e.Name]
		if !ok {
			s.errorf("unknown variable $%s", e.Name)
			return failedValue("{$" + e.Name + "}")
		}
		return argValue(arg)

	case *resource.MessageRef:
		return s.messageRef(e)

	case *resource.TermRef:
		return s.termRef(e)

	case *resource.FunctionRef:
		return s.call(e)

	case *resource.SelectExpr:
		variant := s.selectVariant(e)
		if variant == nil {
			s.errorf("select expression without variants")
			return failedValue("{???}")
		}
		return stringValue(s.pattern(variant.Value))

	case *resource.Placeable:
		return s.expr(e.Expr)
	}

	s.errorf("unsupported expression %T", e)
	return failedValue("{???}")
}

func (s *scope) messageRef(e *resource.MessageRef) value {
	name := e.ID
	if e.Attr != "" {
		name += "." + e.Attr
	}

	msg, ok := s.bundle.Message(e.ID)
	if !ok {
		s.errorf("unknown message %s", e.ID)
		return failedValue("{" + name + "}")
	}

	p := msg.Value
	if e.Attr != "" {
		p, _ = msg.Attribute(e.Attr)
	}
	if p == nil {
		s.errorf("message %s has no pattern", name)
		return failedValue("{" + name + "}")
	}
	return stringValue(s.pattern(p))
}

func (s *scope) termRef(e *resource.TermRef) value {
	name := "-" + e.ID
	if e.Attr != "" {
		name += "." + e.Attr
	}

	term, ok := s.bundle.Term(e.ID)
	if !ok {
		s.errorf("unknown term %s", name)
		return failedValue("{" + name + "}")
	}

	p := term.Value
	if e.Attr != "" {
		p, _ = term.Attribute(e.Attr)
	}
	if p == nil {
		s.errorf("term %s has no pattern", name)
		return failedValue("{" + name + "}")
	}

	// Terms never see the message's arguments.
	args := s.args
	s.args = nil
	out := s.pattern(p)
	s.args = args
	return stringValue(out)
}

func (s *scope) call(e *resource.FunctionRef) value {
	if e.Name != "NUMBER" {
		s.errorf("unknown function %s", e.Name)
		return failedValue("{" + e.Name + "()}")
	}
	if len(e.Positional) != 1 {
		s.errorf("NUMBER takes exactly one positional argument")
		return failedValue("{NUMBER()}")
	}

	arg := s.expr(e.Positional[0])
	if arg.failed {
		return arg
	}
	if !arg.numeric {
		if n, err := strconv.ParseInt(arg.str, 10, 64); err == nil {
			arg = intValue(n)
		} else if n, err := strconv.ParseFloat(arg.str, 64); err == nil {
			arg = floatValue(n)
		} else {
			s.errorf("NUMBER argument %q is not a number", arg.str)
			return failedValue("{NUMBER()}")
		}
	}
	arg.formatted = true

	names := make([]string, 0, len(e.Named))
	for name := range e.Named {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		opt := s.expr(e.Named[name])
		switch name {
		case "minimumFractionDigits":
			arg.opts = append(arg.opts, number.MinFractionDigits(int(opt.num)))
		case "maximumFractionDigits":
			arg.opts = append(arg.opts, number.MaxFractionDigits(int(opt.num)))
		case "minimumIntegerDigits":
			arg.opts = append(arg.opts, number.MinIntegerDigits(int(opt.num)))
		case "useGrouping":
			if opt.str == "false" {
				arg.opts = append(arg.opts, number.NoSeparator())
			}
		}
	}
	return arg
}

// selectVariant picks an exact key match first, then the plural category of a numeric
// selector, then the default variant.
func (s *scope) selectVariant(e *resource.SelectExpr) *resource.Variant {
	sel := s.expr(e.Selector)

	if !sel.failed {
		for _, v := range e.Variants {
			if v.Key.Numeric && sel.numeric && v.Key.Number == sel.num {
				return v
			}
			if !v.Key.Numeric && !sel.numeric && v.Key.Name == sel.str {
				return v
			}
		}
		if sel.numeric {
			category := pluralCategory(s.bundle.Locale(), sel.num)
			for _, v := range e.Variants {
				if !v.Key.Numeric && v.Key.Name == category {
					return v
				}
			}
		}
	}

	if v := e.DefaultVariant(); v != nil {
		return v
	}
	if len(e.Variants) > 0 {
		return e.Variants[0]
	}
	return nil
}

func argValue(arg any) value {
	switch v := arg.(type) {
	case nil:
		return stringValue("")
	case string:
		return stringValue(v)
	case int:
		return intValue(int64(v))
	case int8:
		return intValue(int64(v))
	case int16:
		return intValue(int64(v))
	case int32:
		return intValue(int64(v))
	case int64:
		return intValue(v)
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return uintValue(uint64(v))
	case uint16:
		return uintValue(uint64(v))
	case uint32:
		return uintValue(uint64(v))
	case uint64:
		return uintValue(v)
	case float32:
		return floatValue(float64(v))
	case float64:
		return floatValue(v)
	case fmt.Stringer:
		return stringValue(v.String())
	default:
		return stringValue(fmt.Sprint(v))
	}
}

// pluralCategory returns the CLDR cardinal category name of n in tag.
func pluralCategory(tag language.Tag, n float64) string {
	n = math.Abs(n)
	i := int(math.Mod(math.Trunc(n), 1e15))

	var v, w, f, t int
	digits := strconv.FormatFloat(n, 'f', -1, 64)
	if dot := strings.IndexByte(digits, '.'); dot >= 0 {
		frac := digits[dot+1:]
		v = len(frac)
		f, _ = strconv.Atoi(frac)
		trimmed := strings.TrimRight(frac, "0")
		w = len(trimmed)
		t, _ = strconv.Atoi(trimmed)
	}

	switch plural.Cardinal.MatchPlural(tag, i, v, w, f, t) {
	case plural.Zero:
		return "zero"
	case plural.One:
		return "one"
	case plural.Two:
		return "two"
	case plural.Few:
		return "few"
	case plural.Many:
		return "many"
	default:
		return "other"
	}
}
