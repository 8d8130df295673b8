package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse reads a type written in source syntax, e.g. "Pair<&mut I32, [U8; 4]>".
func Parse(text string) (*Type, error) {
	p := &parser{src: text}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.src[p.pos:], p.pos)
	}
	return t, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) eat(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) expect(tok string) error {
	if !p.eat(tok) {
		return fmt.Errorf("expected %q at offset %d", tok, p.pos)
	}
	return nil
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || r >= 0x80 {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) parseType() (*Type, error) {
	switch {
	case p.eat("&"):
		mut := p.eatKeyword("mut")
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return RefTo(mut, elem), nil
	case p.eat("*"):
		mut := p.eatKeyword("mut")
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return PointerTo(mut, elem), nil
	case p.eat("("):
		elems, err := p.parseList(")")
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return Unit, nil
		}
		return TupleOf(elems...), nil
	case p.eat("["):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.eat(";") {
			p.skipSpace()
			n, err := strconv.Atoi(p.ident())
			if err != nil {
				return nil, fmt.Errorf("bad array length: %w", err)
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			return ArrayOf(elem, n), nil
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return SliceOf(elem), nil
	}

	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected type at offset %d", p.pos)
	}
	if (name == "do" || name == "fn") && p.eat("(") {
		params, err := p.parseList(")")
		if err != nil {
			return nil, err
		}
		var ret *Type
		if p.eat("->") {
			if ret, err = p.parseType(); err != nil {
				return nil, err
			}
		}
		if name == "fn" {
			return ThinFuncOf(params, ret), nil
		}
		return FuncOf(params, ret), nil
	}
	if prim, ok := ParsePrim(name); ok {
		return Primitive(prim), nil
	}
	if p.eat("<") {
		args, err := p.parseList(">")
		if err != nil {
			return nil, err
		}
		return Named(name, args...), nil
	}
	return Named(name), nil
}

func (p *parser) eatKeyword(kw string) bool {
	p.skipSpace()
	save := p.pos
	if p.ident() == kw {
		return true
	}
	p.pos = save
	return false
}

func (p *parser) parseList(closing string) ([]*Type, error) {
	var out []*Type
	if p.eat(closing) {
		return out, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.eat(closing) {
			return out, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
