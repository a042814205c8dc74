package pytd

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// ParseType reads a type expression such as "list[int, ...]", "dict[str, T]"
// or "int or ~unknown3". Names listed in params are read as type parameters.
//
//	union   := atom ("or" atom)*
//	atom    := "?" | "nothing" | name ("[" union ("," union)* ("," "...")? "]")? | "(" union ")"
func ParseType(src string, params ...string) (Type, error) {
	p := &typeParser{tokens: tokenize(src), params: params, src: src}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, p.errorf("unexpected %q", p.tokens[p.pos])
	}
	return t, nil
}

// MustParseType is ParseType for literals known to be valid
func MustParseType(src string, params ...string) Type {
	t, err := ParseType(src, params...)
	if err != nil {
		panic(err)
	}
	return t
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.~", r)
}

func tokenize(src string) []string {
	var tokens []string
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.HasPrefix(string(runes[i:]), "..."):
			tokens = append(tokens, "...")
			i += 3
		case isNameRune(r):
			start := i
			for i < len(runes) && isNameRune(runes[i]) {
				i++
			}
			tokens = append(tokens, string(runes[start:i]))
		default:
			tokens = append(tokens, string(r))
			i++
		}
	}
	return tokens
}

type typeParser struct {
	src    string
	tokens []string
	pos    int
	params []string
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("parsing type %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *typeParser) expect(tok string) error {
	if p.peek() != tok {
		return p.errorf("expected %q, found %q", tok, p.peek())
	}
	p.pos++
	return nil
}

func (p *typeParser) union() (Type, error) {
	first, err := p.atom()
	if err != nil {
		return nil, err
	}
	members := []Type{first}
	for p.peek() == "or" {
		p.pos++
		next, err := p.atom()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, nil
	}
	return UnionType{Types: members}, nil
}

func (p *typeParser) atom() (Type, error) {
	tok := p.peek()
	switch {
	case tok == "":
		return nil, p.errorf("unexpected end of input")
	case tok == "?":
		p.pos++
		return AnythingType{}, nil
	case tok == "nothing":
		p.pos++
		return NothingType{}, nil
	case tok == "(":
		p.pos++
		t, err := p.union()
		if err != nil {
			return nil, err
		}
		return t, p.expect(")")
	case !isNameRune([]rune(tok)[0]):
		return nil, p.errorf("unexpected %q", tok)
	}
	p.pos++
	if p.peek() != "[" {
		if slices.Contains(p.params, tok) {
			return TypeParameter{Name: tok}, nil
		}
		return NamedType{Name: tok}, nil
	}
	p.pos++
	base := NamedType{Name: tok}
	var args []Type
	for {
		arg, err := p.union()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek() != "," {
			break
		}
		p.pos++
		if p.peek() == "..." {
			p.pos++
			if len(args) != 1 {
				return nil, p.errorf("'...' needs exactly one element type")
			}
			return HomogeneousContainerType{Base: base, Element: args[0]}, p.expect("]")
		}
	}
	return GenericType{Base: base, Parameters: args}, p.expect("]")
}
