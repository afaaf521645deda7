// Package parser implements a hand-rolled recursive-descent parser for
// the query language's grammar over the token package's lexer.
package parser

import (
	"encoding/hex"
	"fmt"

	"github.com/arjadhav/blocksql/internal/sql/ast"
	"github.com/arjadhav/blocksql/internal/sql/token"
)

// SyntaxError reports a parse failure at a specific source position.
type SyntaxError struct {
	Pos     token.Pos
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Message)
}

type parser struct {
	tokens []token.Token
	pos    int
}

// Parse tokenizes and parses src into its statements, per "program =
// statement+" — at least one statement, each terminated by a semicolon.
func Parse(src string) ([]ast.Statement, error) {
	p := &parser{tokens: token.All(src)}
	var statements []ast.Statement
	for p.peek().Kind != token.EOF {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}
	if len(statements) == 0 {
		return nil, &SyntaxError{Pos: p.peek().Pos, Message: "expected at least one statement"}
	}
	return statements, nil
}

func (p *parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *parser) next() token.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return token.Token{}, &SyntaxError{
			Pos:     tok.Pos,
			Message: fmt.Sprintf("expected %s, got %s %q", kind, tok.Kind, tok.Text),
		}
	}
	return p.next(), nil
}

func (p *parser) statement() (ast.Statement, error) {
	var stmt ast.Statement
	var err error
	switch p.peek().Kind {
	case token.Create:
		stmt, err = p.createTableStatement()
	case token.Select:
		stmt, err = p.selectStatement()
	case token.Insert:
		stmt, err = p.insertStatement()
	default:
		tok := p.peek()
		return nil, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("expected CREATE, SELECT, or INSERT, got %s %q", tok.Kind, tok.Text)}
	}
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) createTableStatement() (*ast.CreateTableStatement, error) {
	if _, err := p.expect(token.Create); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Table); err != nil {
		return nil, err
	}
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var cols []ast.ColumnDef
	for {
		col, err := p.columnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.peek().Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return &ast.CreateTableStatement{TableName: name.Text, ColumnDefs: cols}, nil
}

func (p *parser) columnDef() (ast.ColumnDef, error) {
	name, err := p.expect(token.Ident)
	if err != nil {
		return ast.ColumnDef{}, err
	}
	typeName, err := p.typeName()
	if err != nil {
		return ast.ColumnDef{}, err
	}
	return ast.ColumnDef{ColumnName: name.Text, Type: typeName}, nil
}

func (p *parser) typeName() (ast.TypeName, error) {
	var kind ast.Type
	switch p.peek().Kind {
	case token.Integer:
		kind = ast.TypeInteger
	case token.Blob:
		kind = ast.TypeBlob
	case token.Varchar:
		kind = ast.TypeVarchar
	default:
		tok := p.peek()
		return ast.TypeName{}, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("expected INTEGER, BLOB, or VARCHAR, got %s %q", tok.Kind, tok.Text)}
	}
	p.next()
	var arg *int64
	if p.peek().Kind == token.LParen {
		p.next()
		n, err := p.numericLiteral()
		if err != nil {
			return ast.TypeName{}, err
		}
		arg = &n
		if _, err := p.expect(token.RParen); err != nil {
			return ast.TypeName{}, err
		}
	}
	return ast.TypeName{Name: kind, Argument: arg}, nil
}

func (p *parser) numericLiteral() (int64, error) {
	tok, err := p.expect(token.NumericLiteral)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, c := range tok.Text {
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

func (p *parser) selectStatement() (*ast.SelectStatement, error) {
	if _, err := p.expect(token.Select); err != nil {
		return nil, err
	}
	var cols []ast.ResultColumn
	for {
		col, err := p.resultColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.peek().Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	var tables []string
	if p.peek().Kind == token.From {
		p.next()
		for {
			name, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			tables = append(tables, name.Text)
			if p.peek().Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
	}
	return &ast.SelectStatement{Columns: cols, Tables: tables}, nil
}

// resultColumn handles the three-way ambiguity at the start of a result
// column: a bare '*', "ident.*", or an expression (which may itself start
// with "ident.ident"). Resolving it needs two tokens of lookahead past
// the leading ident before committing to a shape.
func (p *parser) resultColumn() (ast.ResultColumn, error) {
	if p.peek().Kind == token.Star {
		p.next()
		return ast.ResultColumn{Asterisk: true}, nil
	}
	if p.peek().Kind == token.Ident && p.peekAt(1).Kind == token.Dot && p.peekAt(2).Kind == token.Star {
		table := p.next().Text
		p.next() // '.'
		p.next() // '*'
		return ast.ResultColumn{TableAsterisk: table}, nil
	}
	expr, err := p.expr()
	if err != nil {
		return ast.ResultColumn{}, err
	}
	col := ast.ResultColumn{Expr: &expr}
	if p.peek().Kind == token.As {
		p.next()
		alias, err := p.expect(token.Ident)
		if err != nil {
			return ast.ResultColumn{}, err
		}
		col.Alias = alias.Text
	}
	return col, nil
}

func (p *parser) expr() (ast.Expr, error) {
	switch p.peek().Kind {
	case token.NumericLiteral, token.StringLiteral, token.X:
		lit, err := p.literalValue()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Literal: &lit}, nil
	case token.Ident:
		ident, err := p.columnIdent()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Column: &ident}, nil
	default:
		tok := p.peek()
		return ast.Expr{}, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("expected an expression, got %s %q", tok.Kind, tok.Text)}
	}
}

func (p *parser) columnIdent() (ast.ColumnIdent, error) {
	first, err := p.expect(token.Ident)
	if err != nil {
		return ast.ColumnIdent{}, err
	}
	if p.peek().Kind == token.Dot {
		p.next()
		second, err := p.expect(token.Ident)
		if err != nil {
			return ast.ColumnIdent{}, err
		}
		return ast.ColumnIdent{Table: first.Text, Name: second.Text}, nil
	}
	return ast.ColumnIdent{Name: first.Text}, nil
}

func (p *parser) literalValue() (ast.LiteralValue, error) {
	switch p.peek().Kind {
	case token.NumericLiteral:
		n, err := p.numericLiteral()
		if err != nil {
			return ast.LiteralValue{}, err
		}
		return ast.LiteralValue{Kind: ast.LiteralNumeric, Numeric: n}, nil
	case token.StringLiteral:
		tok := p.next()
		return ast.LiteralValue{Kind: ast.LiteralString, Str: tok.Text}, nil
	case token.X:
		p.next()
		str, err := p.expect(token.StringLiteral)
		if err != nil {
			return ast.LiteralValue{}, err
		}
		decoded, err := hex.DecodeString(str.Text)
		if err != nil {
			return ast.LiteralValue{}, &SyntaxError{Pos: str.Pos, Message: fmt.Sprintf("invalid hex blob literal: %v", err)}
		}
		return ast.LiteralValue{Kind: ast.LiteralBlob, Blob: decoded}, nil
	default:
		tok := p.peek()
		return ast.LiteralValue{}, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("expected a literal value, got %s %q", tok.Kind, tok.Text)}
	}
}

func (p *parser) insertStatement() (*ast.InsertStatement, error) {
	if _, err := p.expect(token.Insert); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Into); err != nil {
		return nil, err
	}
	table, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	var columns []string
	if p.peek().Kind == token.LParen {
		p.next()
		for {
			col, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			columns = append(columns, col.Text)
			if p.peek().Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}

	values, err := p.insertValues()
	if err != nil {
		return nil, err
	}
	return &ast.InsertStatement{Table: table.Text, Columns: columns, Values: values}, nil
}

func (p *parser) insertValues() (ast.InsertValues, error) {
	switch p.peek().Kind {
	case token.Value:
		p.next()
		row, err := p.exprRow()
		if err != nil {
			return ast.InsertValues{}, err
		}
		return ast.InsertValues{Rows: [][]ast.Expr{row}}, nil
	case token.Values:
		p.next()
		var rows [][]ast.Expr
		for {
			row, err := p.exprRow()
			if err != nil {
				return ast.InsertValues{}, err
			}
			rows = append(rows, row)
			if p.peek().Kind == token.Comma {
				p.next()
				continue
			}
			break
		}
		return ast.InsertValues{Rows: rows}, nil
	default:
		tok := p.peek()
		return ast.InsertValues{}, &SyntaxError{Pos: tok.Pos, Message: fmt.Sprintf("expected VALUE or VALUES, got %s %q", tok.Kind, tok.Text)}
	}
}

func (p *parser) exprRow() ([]ast.Expr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var exprs []ast.Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.peek().Kind == token.Comma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return exprs, nil
}
