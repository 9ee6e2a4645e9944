// Package fnparse implements the function parser: recursive-descent
// production of a fnast.Node tree from the raw token range a function
// body was recorded as by the file builder. It produces AST only — no
// name resolution, no type checking; those are internal/elaborate's
// job. The one place this parser consults the stub library is
// disambiguating an identifier token that names a declared type (so
// `Foo(x)` parses as a cast/construct rather than a call).
package fnparse

import (
	"fmt"

	"github.com/rexlang/scriptc/internal/fnast"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

// TypeResolver is the minimal stub-library query the parser needs.
type TypeResolver interface {
	// LookupTypeName returns the TypeDecl-producing type name's stub ID
	// (a Class, Enum, or TypeName) if name is a known type in the
	// given context, or stub.NoID otherwise.
	LookupTypeName(context stub.ID, name string) stub.ID
}

// Parser holds the cursor and context for one function body parse.
type Parser struct {
	toks    []token.Token
	pos     int
	owner   stub.ID
	typer   TypeResolver
	errFile string
}

// Parse parses one function body (the token range recorded by C6)
// into a Scope node ready for elaboration.
func Parse(body []token.Token, owner stub.ID, typer TypeResolver) (*fnast.Node, error) {
	p := &Parser{toks: body, owner: owner, typer: typer}
	if len(p.toks) == 0 {
		return fnast.New(fnast.TagScope, token.Pos{}), nil
	}
	node, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) is(literal string) bool { return p.peek().Is(literal) }

func (p *Parser) expect(literal string) (token.Token, error) {
	if !p.is(literal) {
		return token.Token{}, fmt.Errorf("%s: expected %q, got %q", p.peek().Pos, literal, p.peek().Literal)
	}
	return p.advance(), nil
}

// parseBlock parses a `{ ... }` compound statement into a Scope node
// wrapping a StatementList.
func (p *Parser) parseBlock() (*fnast.Node, error) {
	pos := p.peek().Pos
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	scope := fnast.New(fnast.TagScope, pos)
	list := fnast.New(fnast.TagStatementList, pos)
	for !p.is("}") && p.peek().Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		list.Children = append(list.Children, stmt)
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	scope.Children = []*fnast.Node{list}
	return scope, nil
}

func (p *Parser) parseStatement() (*fnast.Node, error) {
	switch {
	case p.is("{"):
		return p.parseBlock()
	case p.is("var"):
		return p.parseVarDecl()
	case p.is("if"):
		return p.parseIf()
	case p.is("for"):
		return p.parseFor()
	case p.is("while"):
		return p.parseWhile()
	case p.is("do"):
		return p.parseDoWhile()
	case p.is("switch"):
		return p.parseSwitch()
	case p.is("return"):
		return p.parseReturn()
	case p.is("break"):
		pos := p.advance().Pos
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return fnast.New(fnast.TagBreak, pos), nil
	case p.is("continue"):
		pos := p.advance().Pos
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return fnast.New(fnast.TagContinue, pos), nil
	case p.is(";"):
		pos := p.advance().Pos
		return fnast.New(fnast.TagNop, pos), nil
	default:
		pos := p.peek().Pos
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		return fnast.New(fnast.TagStatement, pos, expr), nil
	}
}

func (p *Parser) parseVarDecl() (*fnast.Node, error) {
	pos := p.advance().Pos // consume "var"
	nameTok := p.advance()
	node := fnast.New(fnast.TagVar, pos)
	node.Name = nameTok.Literal
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	typeNode, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	node.Children = append(node.Children, typeNode)
	if p.is("=") {
		p.advance()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, init)
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseTypeExpr parses a (possibly qualified) type name into a Type
// node; TypeDecl construction proper happens in the elaborator, which
// has the stub library's create* APIs — here we only record the
// dotted name text as AccessType lookup, deferred to resolveTypes.
func (p *Parser) parseTypeExpr() (*fnast.Node, error) {
	pos := p.peek().Pos
	var name string
	for {
		tok := p.advance()
		name += tok.Literal
		if p.is(".") {
			p.advance()
			name += "."
			continue
		}
		break
	}
	n := fnast.New(fnast.TagType, pos)
	n.Name = name
	return n, nil
}

func (p *Parser) parseIf() (*fnast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node := fnast.New(fnast.TagIfThenElse, pos, cond, then)
	if p.is("else") {
		p.advance()
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, elseStmt)
	}
	return node, nil
}

func (p *Parser) parseFor() (*fnast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var cond, incr *fnast.Node
	var initStmt *fnast.Node
	if !p.is(";") {
		var err error
		initStmt, err = p.parseStatementNoSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(";") {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.is(")") {
		var err error
		incr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if cond == nil {
		cond = fnast.New(fnast.TagNop, pos)
	}
	if incr == nil {
		incr = fnast.New(fnast.TagNop, pos)
	}
	forNode := fnast.New(fnast.TagFor, pos, cond, incr, body)
	if initStmt != nil {
		wrap := fnast.New(fnast.TagStatementList, pos, initStmt, forNode)
		return wrap, nil
	}
	return forNode, nil
}

// parseStatementNoSemi parses a single init-clause statement (var
// decl or expression) without consuming a trailing semicolon, used
// only inside a `for (init; cond; incr)` header.
func (p *Parser) parseStatementNoSemi() (*fnast.Node, error) {
	pos := p.peek().Pos
	if p.is("var") {
		p.advance()
		nameTok := p.advance()
		node := fnast.New(fnast.TagVar, pos)
		node.Name = nameTok.Literal
		if _, err := p.expect(":"); err != nil {
			return nil, err
		}
		typeNode, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, typeNode)
		if p.is("=") {
			p.advance()
			init, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, init)
		}
		return node, nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return fnast.New(fnast.TagStatement, pos, expr), nil
}

func (p *Parser) parseWhile() (*fnast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return fnast.New(fnast.TagWhile, pos, cond, fnast.New(fnast.TagNop, pos), body), nil
}

func (p *Parser) parseDoWhile() (*fnast.Node, error) {
	pos := p.advance().Pos
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("while"); err != nil {
		return nil, err
	}
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return fnast.New(fnast.TagDoWhile, pos, cond, fnast.New(fnast.TagNop, pos), body), nil
}

func (p *Parser) parseSwitch() (*fnast.Node, error) {
	pos := p.advance().Pos
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	subject, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	node := fnast.New(fnast.TagSwitch, pos, subject)
	for !p.is("}") && p.peek().Kind != token.EOF {
		switch {
		case p.is("case"):
			casePos := p.advance().Pos
			val, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(":"); err != nil {
				return nil, err
			}
			body := fnast.New(fnast.TagStatementList, casePos)
			for !p.is("case") && !p.is("default") && !p.is("}") {
				s, err := p.parseStatement()
				if err != nil {
					return nil, err
				}
				body.Children = append(body.Children, s)
			}
			node.Children = append(node.Children, fnast.New(fnast.TagCase, casePos, val, body))
		case p.is("default"):
			defPos := p.advance().Pos
			if _, err := p.expect(":"); err != nil {
				return nil, err
			}
			body := fnast.New(fnast.TagStatementList, defPos)
			for !p.is("case") && !p.is("default") && !p.is("}") {
				s, err := p.parseStatement()
				if err != nil {
					return nil, err
				}
				body.Children = append(body.Children, s)
			}
			node.Children = append(node.Children, fnast.New(fnast.TagDefaultCase, defPos, body))
		default:
			return nil, fmt.Errorf("%s: expected case or default in switch", p.peek().Pos)
		}
	}
	if _, err := p.expect("}"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseReturn() (*fnast.Node, error) {
	pos := p.advance().Pos
	node := fnast.New(fnast.TagReturn, pos)
	if !p.is(";") {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, expr)
	}
	if _, err := p.expect(";"); err != nil {
		return nil, err
	}
	return node, nil
}

// --- expressions, precedence-climbing ---

func (p *Parser) parseExpression() (*fnast.Node, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (*fnast.Node, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.is("=") {
		pos := p.advance().Pos
		rhs, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return fnast.New(fnast.TagAssign, pos, lhs, rhs), nil
	}
	return lhs, nil
}

func (p *Parser) parseLogicalOr() (*fnast.Node, error) {
	lhs, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.is("||") {
		pos := p.advance().Pos
		rhs, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		lhs = opNode(pos, "||", lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseLogicalAnd() (*fnast.Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.is("&&") {
		pos := p.advance().Pos
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = opNode(pos, "&&", lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseEquality() (*fnast.Node, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.is("==") || p.is("!=") {
		sym := p.peek().Literal
		pos := p.advance().Pos
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = opNode(pos, sym, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseRelational() (*fnast.Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.is("<") || p.is(">") || p.is("<=") || p.is(">=") {
		sym := p.peek().Literal
		pos := p.advance().Pos
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = opNode(pos, sym, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseAdditive() (*fnast.Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.is("+") || p.is("-") {
		sym := p.peek().Literal
		pos := p.advance().Pos
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = opNode(pos, sym, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (*fnast.Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.is("*") || p.is("/") || p.is("%") {
		sym := p.peek().Literal
		pos := p.advance().Pos
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = opNode(pos, sym, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (*fnast.Node, error) {
	if p.is("-") || p.is("!") || p.is("~") {
		sym := p.peek().Literal
		pos := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return opNode(pos, "u"+sym, operand, nil), nil
	}
	return p.parsePostfix()
}

func opNode(pos token.Pos, sym string, a, b *fnast.Node) *fnast.Node {
	n := fnast.New(fnast.TagOperator, pos, a)
	if b != nil {
		n.Children = append(n.Children, b)
	}
	n.Name = sym
	return n
}

func (p *Parser) parsePostfix() (*fnast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is("."):
			pos := p.advance().Pos
			nameTok := p.advance()
			member := fnast.New(fnast.TagAccessMember, pos, node)
			member.Name = nameTok.Literal
			node = member
		case p.is("("):
			pos := p.advance().Pos
			var args []*fnast.Node
			for !p.is(")") {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.is(",") {
					p.advance()
				}
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			call := fnast.New(fnast.TagCall, pos, append([]*fnast.Node{node}, args...)...)
			node = call
		case p.is("["):
			pos := p.advance().Pos
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			node = fnast.New(fnast.TagAccessIndex, pos, node, idx)
		default:
			return node, nil
		}
	}
}

func (p *Parser) parsePrimary() (*fnast.Node, error) {
	tok := p.peek()
	switch {
	case tok.Kind == token.Integer:
		p.advance()
		n := fnast.New(fnast.TagConst, tok.Pos)
		n.Const = stub.Int(tok.IntVal)
		return n, nil
	case tok.Kind == token.Float:
		p.advance()
		n := fnast.New(fnast.TagConst, tok.Pos)
		n.Const = stub.Float(tok.FloatVal)
		return n, nil
	case tok.Kind == token.String:
		p.advance()
		n := fnast.New(fnast.TagConst, tok.Pos)
		n.Const = stub.String(tok.Literal)
		return n, nil
	case tok.Kind == token.Name:
		p.advance()
		n := fnast.New(fnast.TagConst, tok.Pos)
		n.Const = stub.Name(tok.Literal)
		return n, nil
	case tok.Is("true"):
		p.advance()
		n := fnast.New(fnast.TagConst, tok.Pos)
		n.Const = stub.Bool(true)
		return n, nil
	case tok.Is("false"):
		p.advance()
		n := fnast.New(fnast.TagConst, tok.Pos)
		n.Const = stub.Bool(false)
		return n, nil
	case tok.Is("null"):
		p.advance()
		return fnast.New(fnast.TagNull, tok.Pos), nil
	case tok.Is("this"):
		p.advance()
		return fnast.New(fnast.TagThis, tok.Pos), nil
	case tok.Is("new"):
		p.advance()
		typeNode, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("("); err != nil {
			return nil, err
		}
		var args []*fnast.Node
		for !p.is(")") {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.is(",") {
				p.advance()
			}
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return fnast.New(fnast.TagNew, tok.Pos, append([]*fnast.Node{typeNode}, args...)...), nil
	case tok.Is("("):
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tok.Kind == token.Identifier:
		p.advance()
		if p.typer != nil && p.typer.LookupTypeName(p.owner, tok.Literal).Valid() {
			n := fnast.New(fnast.TagType, tok.Pos)
			n.Name = tok.Literal
			return n, nil
		}
		n := fnast.New(fnast.TagIdent, tok.Pos)
		n.Name = tok.Literal
		return n, nil
	default:
		return nil, fmt.Errorf("%s: unexpected token %q", tok.Pos, tok.Literal)
	}
}
