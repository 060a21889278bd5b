package lexer

import (
	"fmt"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	IDENT  // sqrt, log10, ...
	NUMBER // 42, 3.14, .5

	// Operators
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	CARET    // ^
	PERCENT  // %

	// Delimiters
	LPAREN // (
	RPAREN // )
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Column  int // 1-based byte column of the first character
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Column: %d}", t.Type.String(), t.Literal, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case NUMBER:
		return "NUMBER"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case ASTERISK:
		return "*"
	case SLASH:
		return "/"
	case CARET:
		return "^"
	case PERCENT:
		return "%"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	default:
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
}

// IsOperator reports whether the token type is an arithmetic operator.
func (tt TokenType) IsOperator() bool {
	switch tt {
	case PLUS, MINUS, ASTERISK, SLASH, CARET, PERCENT:
		return true
	}
	return false
}

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next byte and advances position.
// Expressions are ASCII; anything else surfaces as an ILLEGAL token.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL character represents EOF
		l.position = l.readPosition
		return
	}
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	column := l.position + 1

	var tok Token
	switch l.ch {
	case '+':
		tok = newToken(PLUS, l.ch, column)
	case '-':
		tok = newToken(MINUS, l.ch, column)
	case '*':
		tok = newToken(ASTERISK, l.ch, column)
	case '/':
		tok = newToken(SLASH, l.ch, column)
	case '^':
		tok = newToken(CARET, l.ch, column)
	case '%':
		tok = newToken(PERCENT, l.ch, column)
	case '(':
		tok = newToken(LPAREN, l.ch, column)
	case ')':
		tok = newToken(RPAREN, l.ch, column)
	case 0:
		if l.position < len(l.input) {
			// A literal NUL inside the input
			tok = Token{Type: ILLEGAL, Literal: "unexpected character '\\x00'", Column: column}
			break
		}
		return Token{Type: EOF, Literal: "", Column: column}
	default:
		if isLetter(l.ch) {
			return Token{Type: IDENT, Literal: l.readIdentifier(), Column: column}
		}
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			return Token{Type: NUMBER, Literal: l.readNumber(), Column: column}
		}
		return l.illegal(column)
	}

	l.readChar()
	return tok
}

// illegal consumes one character (a whole rune when non-ASCII) and
// describes it in the token literal.
func (l *Lexer) illegal(column int) Token {
	r, size := utf8.DecodeRuneInString(l.input[l.position:])
	if size < 1 {
		size = 1
	}
	for i := 0; i < size; i++ {
		l.readChar()
	}
	return Token{Type: ILLEGAL, Literal: fmt.Sprintf("unexpected character '%c'", r), Column: column}
}

// Tokenize returns every token of input up to and including EOF.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// newToken creates a new token with the given parameters
func newToken(tokenType TokenType, ch byte, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Column: column}
}

// readIdentifier reads a function or constant name. Digits are allowed
// after the first letter so that log10 lexes as one identifier.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads an unsigned decimal literal (integer or fraction)
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	// Check for decimal point
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume the '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[position:l.position]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// isLetter checks if a byte is an ASCII letter or underscore
func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isDigit checks if the character is a digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
