package nbt

import (
	"fmt"
	"strconv"
	"strings"
)

// MarshalSNBT renders a tag value in its string form. An empty indent
// produces the compact single-line form.
func MarshalSNBT(v any, indent string) (string, error) {
	p := &printer{indent: indent}
	if err := p.value(v, 0); err != nil {
		return "", err
	}
	return p.sb.String(), nil
}

type printer struct {
	sb     strings.Builder
	indent string
}

func (p *printer) newline(depth int) {
	if p.indent == "" {
		return
	}
	p.sb.WriteByte('\n')
	for range depth {
		p.sb.WriteString(p.indent)
	}
}

func (p *printer) value(v any, depth int) error {
	switch x := v.(type) {
	case int8:
		p.sb.WriteString(strconv.FormatInt(int64(x), 10) + "b")
	case int16:
		p.sb.WriteString(strconv.FormatInt(int64(x), 10) + "s")
	case int32:
		p.sb.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		p.sb.WriteString(strconv.FormatInt(x, 10) + "L")
	case float32:
		p.sb.WriteString(formatFloat(float64(x), 32) + "f")
	case float64:
		p.sb.WriteString(formatFloat(x, 64) + "d")
	case string:
		p.sb.WriteString(strconv.Quote(x))
	case []byte:
		p.sb.WriteString("[B;")
		for i, b := range x {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.sb.WriteString(strconv.FormatInt(int64(int8(b)), 10) + "b")
		}
		p.sb.WriteByte(']')
	case []int32:
		p.sb.WriteString("[I;")
		for i, n := range x {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.sb.WriteString(strconv.FormatInt(int64(n), 10))
		}
		p.sb.WriteByte(']')
	case []int64:
		p.sb.WriteString("[L;")
		for i, n := range x {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.sb.WriteString(strconv.FormatInt(n, 10) + "L")
		}
		p.sb.WriteByte(']')
	case *List:
		p.sb.WriteByte('[')
		for i, it := range x.Items {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.newline(depth + 1)
			if err := p.value(it, depth+1); err != nil {
				return err
			}
		}
		if len(x.Items) > 0 {
			p.newline(depth)
		}
		p.sb.WriteByte(']')
	case *Compound:
		p.sb.WriteByte('{')
		for i, e := range x.entries {
			if i > 0 {
				p.sb.WriteByte(',')
			}
			p.newline(depth + 1)
			p.sb.WriteString(quoteKey(e.Name))
			p.sb.WriteByte(':')
			if p.indent != "" {
				p.sb.WriteByte(' ')
			}
			if err := p.value(e.Value, depth+1); err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
		}
		if len(x.entries) > 0 {
			p.newline(depth)
		}
		p.sb.WriteByte('}')
	default:
		return fmt.Errorf("nbt: unsupported value %T", v)
	}
	return nil
}

func formatFloat(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}

func isBareKeyChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '_' || r == '-' || r == '.' || r == '+'
}

func quoteKey(k string) string {
	if k == "" {
		return `""`
	}
	for _, r := range k {
		if !isBareKeyChar(r) {
			return strconv.Quote(k)
		}
	}
	return k
}

// ParseSNBT parses a compound in string form.
func ParseSNBT(s string) (*Compound, error) {
	v, err := ParseSNBTValue(s)
	if err != nil {
		return nil, err
	}
	c, ok := v.(*Compound)
	if !ok {
		t, _ := TypeOf(v)
		return nil, fmt.Errorf("snbt: top level value is %s, want compound", t)
	}
	return c, nil
}

// ParseSNBTValue parses any tag value in string form.
func ParseSNBTValue(s string) (any, error) {
	p := &parser{src: s}
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing data")
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("snbt: offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, p.errorf("nesting too deep")
	}
	p.skipSpace()
	switch p.peek() {
	case 0:
		return nil, p.errorf("unexpected end of input")
	case '{':
		return p.compound(depth)
	case '[':
		if p.pos+2 < len(p.src) && p.src[p.pos+2] == ';' {
			return p.array()
		}
		return p.list(depth)
	case '"', '\'':
		return p.quoted()
	}
	tok := p.bare()
	if tok == "" {
		return nil, p.errorf("unexpected character %q", p.peek())
	}
	return scalar(tok), nil
}

func (p *parser) compound(depth int) (*Compound, error) {
	p.pos++
	c := &Compound{}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return c, nil
	}
	for {
		p.skipSpace()
		var key string
		if q := p.peek(); q == '"' || q == '\'' {
			k, err := p.quoted()
			if err != nil {
				return nil, err
			}
			key = k
		} else {
			key = p.bare()
			if key == "" {
				return nil, p.errorf("expected key")
			}
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return c, nil
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *parser) list(depth int) (*List, error) {
	p.pos++
	l := &List{}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return l, nil
	}
	for {
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		t, _ := TypeOf(v)
		if len(l.Items) == 0 {
			l.Elem = t
		} else if t != l.Elem {
			return nil, p.errorf("list mixes %s and %s", l.Elem, t)
		}
		l.Items = append(l.Items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return l, nil
		default:
			return nil, p.errorf("expected ',' or ']'")
		}
	}
}

func (p *parser) array() (any, error) {
	kind := p.src[p.pos+1]
	p.pos += 3
	var (
		bs []byte
		is []int32
		ls []int64
	)
	switch kind {
	case 'B':
		bs = []byte{}
	case 'I':
		is = []int32{}
	case 'L':
		ls = []int64{}
	default:
		return nil, p.errorf("unknown array kind %q", kind)
	}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
	} else {
		for {
			p.skipSpace()
			tok := p.bare()
			if tok == "" {
				return nil, p.errorf("expected array element")
			}
			switch kind {
			case 'B':
				n, err := strconv.ParseInt(strings.TrimRight(tok, "bB"), 10, 8)
				if err != nil {
					return nil, p.errorf("byte array element %q", tok)
				}
				bs = append(bs, byte(int8(n)))
			case 'I':
				n, err := strconv.ParseInt(tok, 10, 32)
				if err != nil {
					return nil, p.errorf("int array element %q", tok)
				}
				is = append(is, int32(n))
			case 'L':
				n, err := strconv.ParseInt(strings.TrimRight(tok, "lL"), 10, 64)
				if err != nil {
					return nil, p.errorf("long array element %q", tok)
				}
				ls = append(ls, n)
			}
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			if p.peek() == ']' {
				p.pos++
				break
			}
			return nil, p.errorf("expected ',' or ']'")
		}
	}
	switch kind {
	case 'B':
		return bs, nil
	case 'I':
		return is, nil
	}
	return ls, nil
}

func (p *parser) quoted() (string, error) {
	q := p.src[p.pos]
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case q:
			p.pos++
			raw := p.src[start:p.pos]
			if q == '\'' {
				inner := raw[1 : len(raw)-1]
				inner = strings.ReplaceAll(inner, `\'`, `'`)
				inner = strings.ReplaceAll(inner, `"`, `\"`)
				raw = `"` + inner + `"`
			}
			s, err := strconv.Unquote(raw)
			if err != nil {
				return "", p.errorf("bad string literal: %v", err)
			}
			return s, nil
		}
		p.pos++
	}
	return "", p.errorf("unterminated string")
}

func (p *parser) bare() string {
	start := p.pos
	for p.pos < len(p.src) && isBareKeyChar(rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// scalar types an unquoted token by its suffix. Tokens that are not numbers
// are strings.
func scalar(tok string) any {
	switch tok {
	case "true":
		return int8(1)
	case "false":
		return int8(0)
	}
	last := tok[len(tok)-1]
	body := tok[:len(tok)-1]
	switch last {
	case 'b', 'B':
		if n, err := strconv.ParseInt(body, 10, 8); err == nil {
			return int8(n)
		}
	case 's', 'S':
		if n, err := strconv.ParseInt(body, 10, 16); err == nil {
			return int16(n)
		}
	case 'l', 'L':
		if n, err := strconv.ParseInt(body, 10, 64); err == nil {
			return n
		}
	case 'f', 'F':
		if isFloatLiteral(body) {
			if f, err := strconv.ParseFloat(body, 32); err == nil {
				return float32(f)
			}
		}
	case 'd', 'D':
		if isFloatLiteral(body) {
			if f, err := strconv.ParseFloat(body, 64); err == nil {
				return f
			}
		}
	}
	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return int32(n)
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return n
	}
	if isFloatLiteral(tok) && strings.ContainsAny(tok, ".eE") {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return f
		}
	}
	return tok
}

func isFloatLiteral(s string) bool {
	switch s {
	case "NaN", "+Inf", "-Inf":
		return true
	}
	if s == "" {
		return false
	}
	digits := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '.' || r == 'e' || r == 'E':
		case (r == '-' || r == '+') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return digits
}
