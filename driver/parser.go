// Package driver runs a compiled grammar's ACTION/GOTO tables over a maleeni token stream,
// dispatching a caller-supplied semantic action on every reduction.
package driver

import (
	"fmt"
	"io"

	"github.com/emirpasic/gods/stacks/arraystack"
	mldriver "github.com/nihei9/maleeni/driver"

	"github.com/ysakai/lrforge/grammar"
)

// SemanticAction is invoked on every reduction with the production number that fired and the
// semantic values popped off the stack in left-to-right order. Its result becomes the
// semantic value pushed for the production's left-hand side. A nil SemanticAction is treated
// as the identity on a single child and nil otherwise, which is enough to drive a grammar
// purely for its accept/reject verdict.
type SemanticAction func(prodNum int, values []interface{}) (interface{}, error)

// ParseError reports a token the tables have no ACTION entry for. ExpectedTerminals lists
// every terminal that state's ACTION row does have an entry for, in table order, so callers
// can render "expected one of: ..." diagnostics without re-scanning the grammar.
type ParseError struct {
	Row               int
	Col               int
	Token             string
	ExpectedTerminals []string
}

func (e *ParseError) Error() string {
	if len(e.ExpectedTerminals) == 0 {
		return fmt.Sprintf("%v:%v: unexpected token %q", e.Row, e.Col, e.Token)
	}
	return fmt.Sprintf("%v:%v: unexpected token %q; expected one of: %v", e.Row, e.Col, e.Token, e.ExpectedTerminals)
}

type frame struct {
	state int
	value interface{}
}

// Parser drives a *grammar.CompiledGrammar's tables over a single input. It holds exclusive
// ownership of its stack for the duration of a parse; the tables it reads are immutable and
// may be shared by any number of concurrently running parsers.
type Parser struct {
	gram   *grammar.CompiledGrammar
	lex    *mldriver.Lexer
	stack  *arraystack.Stack
	action SemanticAction
}

// ParserOption customizes a Parser built by NewParser.
type ParserOption func(*Parser)

// WithSemanticAction installs the callback Parse invokes on every reduction.
func WithSemanticAction(act SemanticAction) ParserOption {
	return func(p *Parser) { p.action = act }
}

func NewParser(cgram *grammar.CompiledGrammar, src io.Reader, opts ...ParserOption) (*Parser, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(cgram.LexSpec.Spec), src)
	if err != nil {
		return nil, fmt.Errorf("failed to start the lexer: %w", err)
	}

	p := &Parser{
		gram:  cgram,
		lex:   lex,
		stack: arraystack.New(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Parser) top() frame {
	v, _ := p.stack.Peek()
	return v.(frame)
}

func (p *Parser) push(f frame) {
	p.stack.Push(f)
}

// pop removes and returns the top n frames with the deepest one first, i.e. in the
// left-to-right order the popped production's right-hand side symbols appeared in.
func (p *Parser) pop(n int) []frame {
	popped := make([]frame, n)
	for i := n - 1; i >= 0; i-- {
		v, _ := p.stack.Pop()
		popped[i] = v.(frame)
	}
	return popped
}

func (p *Parser) nextToken() (*mldriver.Token, error) {
	skip := p.gram.LexSpec.Skip
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, fmt.Errorf("lexer error: %w", err)
		}
		if !tok.EOF && int(tok.KindID) < len(skip) && skip[int(tok.KindID)] {
			continue
		}
		return tok, nil
	}
}

func (p *Parser) tokenToTerminal(tok *mldriver.Token) int {
	if tok.EOF {
		return p.gram.EOFSymbol
	}
	return int(p.gram.LexSpec.KindToTerminal[int(tok.KindID)])
}

// Parse runs the shift-reduce loop to completion, returning the semantic value produced by
// reducing the augmented start production, or a *ParseError describing the first token the
// tables rejected. It never panics on malformed input.
func (p *Parser) Parse() (interface{}, error) {
	p.push(frame{state: p.gram.Table.InitialState})

	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	for {
		term := p.tokenToTerminal(tok)
		ty, nextState, prodNum, err := p.gram.Table.Action(p.top().state, term)
		if err != nil {
			return nil, fmt.Errorf("failed to read the action table: %w", err)
		}

		switch ty {
		case grammar.ActionTypeShift:
			var v interface{}
			if !tok.EOF {
				v = string(tok.Lexeme)
			}
			p.push(frame{state: nextState, value: v})

			tok, err = p.nextToken()
			if err != nil {
				return nil, err
			}

		case grammar.ActionTypeReduce:
			result, accepted, err := p.reduce(prodNum)
			if err != nil {
				return nil, err
			}
			if accepted {
				return result, nil
			}

		default:
			return nil, &ParseError{
				Row:               tok.Row,
				Col:               tok.Col,
				Token:             string(tok.Lexeme),
				ExpectedTerminals: p.expectedTerminals(p.top().state),
			}
		}
	}
}

// reduce pops the production's handle, invokes the semantic action, and pushes the result
// under the GOTO-selected state. It reports acceptance when the production reduced is the
// augmented start production, per the Accept invariant: the sole remaining semantic value is
// the parse result.
func (p *Parser) reduce(prodNum int) (interface{}, bool, error) {
	lhs := p.gram.LHSSymbols[prodNum]
	n := p.gram.ProductionLengths[prodNum]

	handle := p.pop(n)
	if prodNum == p.gram.StartProduction {
		return handle[0].value, true, nil
	}

	values := make([]interface{}, n)
	for i, f := range handle {
		values[i] = f.value
	}

	var result interface{}
	var err error
	if p.action != nil {
		result, err = p.action(prodNum, values)
		if err != nil {
			return nil, false, fmt.Errorf("semantic action for production %v failed: %w", prodNum, err)
		}
	} else if n == 1 {
		result = values[0]
	}

	gty, nextState, err := p.gram.Table.GoTo(p.top().state, lhs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read the goto table: %w", err)
	}
	if gty == grammar.GoToTypeError {
		return nil, false, fmt.Errorf("no goto entry for state %v and non-terminal %v", p.top().state, lhs)
	}

	p.push(frame{state: nextState, value: result})
	return nil, false, nil
}

// expectedTerminals scans the state's ACTION row and returns the name of every terminal that
// has a non-error entry there, table order, EOF included when it can be shifted or reduced on.
func (p *Parser) expectedTerminals(state int) []string {
	var names []string
	for term := 0; term < p.gram.Table.TerminalCount; term++ {
		ty, _, _, err := p.gram.Table.Action(state, term)
		if err != nil || ty == grammar.ActionTypeError {
			continue
		}
		if term == p.gram.EOFSymbol {
			names = append(names, "<eof>")
			continue
		}
		if term < len(p.gram.Terminals) {
			names = append(names, p.gram.Terminals[term])
		}
	}
	return names
}
