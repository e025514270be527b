package model

import (
	"fmt"
	"strings"
)

// ParseClass parses a class declaration of the form
//
//	Order: *IId SName FTotal &SEmail
//
// Each field is a kind letter followed by the field name. A '*' prefix
// marks a primary key member, a '&' prefix a hash-indexed field. A '>K'
// suffix declares a conversion to provider kind K, as in `TWhen>I`; the
// converter itself is attached programmatically after parsing and must
// match the declared kinds.
func ParseClass(decl string) (c *Class, err error) {
	name, rest, ok := strings.Cut(decl, ":")
	name = strings.TrimSpace(name)
	if !ok || len(name) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadField, decl)
	}
	c = &Class{Name: name}
	for _, tok := range strings.Fields(rest) {
		f := Property{Kind: String}
		for len(tok) > 0 && (tok[0] == '*' || tok[0] == '&') {
			if tok[0] == '*' {
				f.PK = true
			} else {
				f.Index = HashIndex
			}
			tok = tok[1:]
		}
		if rest, prov, has := strings.Cut(tok, ">"); has {
			if len(prov) != 1 {
				return nil, fmt.Errorf("%w: %s.%q", ErrBadField, name, tok)
			}
			f.Provider = prov[0]
			tok = rest
		}
		if len(tok) > 0 && tok[0] >= 'A' && tok[0] <= 'Z' {
			f.Kind = tok[0]
			tok = tok[1:]
		}
		f.Name = tok
		f.Offset = int64(len(c.Fields))
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %s.%q", ErrBadField, name, tok)
		}
		c.Fields = append(c.Fields, f)
	}
	return
}

// String renders the class back into the ParseClass form.
func (c *Class) String() string {
	b := strings.Builder{}
	b.WriteString(c.Name)
	b.WriteByte(':')
	for _, f := range c.Fields {
		b.WriteByte(' ')
		if f.PK {
			b.WriteByte('*')
		}
		if f.Index == HashIndex {
			b.WriteByte('&')
		}
		b.WriteByte(f.Kind)
		b.WriteString(f.Name)
		if f.Provider != 0 {
			b.WriteByte('>')
			b.WriteByte(f.Provider)
		}
	}
	return b.String()
}
