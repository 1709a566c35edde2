package dsl

import (
	"fmt"
	"io"

	verr "github.com/ysakai/lrforge/error"
)

// Parse reads a complete grammar source from r and returns its parsed form. Parse errors
// are collected into a verr.SpecErrors rather than stopping at the first one, so a single
// call reports every malformed directive or production in the source.
func Parse(sourceName string, r io.Reader) (*File, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	p := &parser{sc: newScanner(src), sourceName: sourceName}
	if err := p.advance(); err != nil {
		return nil, err
	}

	f := &File{}
	for p.cur.kind != tokEOF {
		if p.cur.kind == tokPercent {
			if err := p.parseDirective(f); err != nil {
				p.errs = append(p.errs, p.wrap(err, p.cur.row))
				p.recoverToSemiOrPercent()
				continue
			}
			continue
		}
		if err := p.parseProduction(f); err != nil {
			p.errs = append(p.errs, p.wrap(err, p.cur.row))
			p.recoverToSemiOrPercent()
			continue
		}
	}

	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return f, nil
}

type parser struct {
	sc         *scanner
	cur        *token
	sourceName string
	errs       verr.SpecErrors
}

func (p *parser) wrap(cause error, row int) *verr.SpecError {
	return &verr.SpecError{
		Cause:      cause,
		SourceName: p.sourceName,
		Row:        row,
	}
}

func (p *parser) advance() error {
	t, err := p.sc.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) recoverToSemiOrPercent() {
	for p.cur.kind != tokEOF && p.cur.kind != tokSemi && p.cur.kind != tokPercent {
		p.advance()
	}
	if p.cur.kind == tokSemi {
		p.advance()
	}
}

func (p *parser) expect(k tokenKind, what string) (*token, error) {
	if p.cur.kind != k {
		return nil, fmt.Errorf("expected %v, found %q", what, p.cur.text)
	}
	t := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *parser) parseDirective(f *File) error {
	if err := p.advance(); err != nil { // consume '%'
		return err
	}
	name, err := p.expect(tokIdent, "directive name")
	if err != nil {
		return err
	}

	switch name.text {
	case "name":
		v, err := p.expect(tokIdent, "grammar name")
		if err != nil {
			return err
		}
		f.Name = v.text
	case "start":
		v, err := p.expect(tokIdent, "start symbol name")
		if err != nil {
			return err
		}
		f.Start = v.text
	case "token":
		tname, err := p.expect(tokIdent, "token name")
		if err != nil {
			return err
		}
		pat, err := p.expect(tokString, "token pattern")
		if err != nil {
			return err
		}
		f.Tokens = append(f.Tokens, &TokenDecl{Name: tname.text, Pattern: pat.text, Row: name.row})
	case "skip":
		v, err := p.expect(tokIdent, "token name")
		if err != nil {
			return err
		}
		f.Skip = append(f.Skip, v.text)
	case "left", "right", "nonassoc":
		g := &PrecGroup{Assoc: name.text, Row: name.row}
		for {
			v, err := p.expect(tokIdent, "terminal name")
			if err != nil {
				return err
			}
			g.Names = append(g.Names, v.text)
			if p.cur.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return err
			}
		}
		f.PrecGroups = append(f.PrecGroups, g)
	default:
		return fmt.Errorf("unknown directive %%%v", name.text)
	}
	return nil
}

func (p *parser) parseProduction(f *File) error {
	lhs, err := p.expect(tokIdent, "production name")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return err
	}

	prod := &ProductionDecl{LHS: lhs.text, Row: lhs.row}
	for {
		alt, err := p.parseAlt()
		if err != nil {
			return err
		}
		prod.Alts = append(prod.Alts, alt)
		if p.cur.kind != tokPipe {
			break
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return err
	}
	f.Productions = append(f.Productions, prod)
	return nil
}

func (p *parser) parseAlt() (*Alt, error) {
	alt := &Alt{Row: p.cur.row}
	for p.cur.kind == tokIdent || p.cur.kind == tokPercent {
		if p.cur.kind == tokPercent {
			if err := p.advance(); err != nil {
				return nil, err
			}
			dir, err := p.expect(tokIdent, "directive name")
			if err != nil {
				return nil, err
			}
			if dir.text != "prec" {
				return nil, fmt.Errorf("unknown alternative directive %%%v", dir.text)
			}
			sym, err := p.expect(tokIdent, "precedence symbol")
			if err != nil {
				return nil, err
			}
			alt.PrecSymbol = sym.text
			continue
		}
		alt.Symbols = append(alt.Symbols, p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return alt, nil
}
