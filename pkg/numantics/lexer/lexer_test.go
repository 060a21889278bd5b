package lexer

import (
	"strings"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `sqrt(16) + 2.5*3 - .5 / log10(100)^2 % 7`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
		expectedColumn  int
	}{
		{IDENT, "sqrt", 1},
		{LPAREN, "(", 5},
		{NUMBER, "16", 6},
		{RPAREN, ")", 8},
		{PLUS, "+", 10},
		{NUMBER, "2.5", 12},
		{ASTERISK, "*", 15},
		{NUMBER, "3", 16},
		{MINUS, "-", 18},
		{NUMBER, ".5", 20},
		{SLASH, "/", 23},
		{IDENT, "log10", 25},
		{LPAREN, "(", 30},
		{NUMBER, "100", 31},
		{RPAREN, ")", 34},
		{CARET, "^", 35},
		{NUMBER, "2", 36},
		{PERCENT, "%", 38},
		{NUMBER, "7", 40},
		{EOF, "", 41},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}

		if tok.Column != tt.expectedColumn {
			t.Fatalf("tests[%d] - column wrong. expected=%d, got=%d",
				i, tt.expectedColumn, tok.Column)
		}
	}
}

func TestIllegalCharacters(t *testing.T) {
	tests := []struct {
		input   string
		literal string
	}{
		{"$", "unexpected character '$'"},
		{",", "unexpected character ','"},
		{"é", "unexpected character 'é'"},
		{"2.", "unexpected character '.'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var illegal *Token
			for _, tok := range Tokenize(tt.input) {
				if tok.Type == ILLEGAL {
					tok := tok
					illegal = &tok
					break
				}
			}
			if illegal == nil {
				t.Fatalf("expected an ILLEGAL token for %q", tt.input)
			}
			if illegal.Literal != tt.literal {
				t.Errorf("literal = %q, want %q", illegal.Literal, tt.literal)
			}
		})
	}
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	for _, input := range []string{"", "   ", "1+1", "abc"} {
		tokens := Tokenize(input)
		if len(tokens) == 0 || tokens[len(tokens)-1].Type != EOF {
			t.Errorf("Tokenize(%q) did not end with EOF: %v", input, tokens)
		}
	}
}

func TestIdentifiersWithDigits(t *testing.T) {
	tokens := Tokenize("log10 Log10 x2")
	var got []string
	for _, tok := range tokens {
		if tok.Type == IDENT {
			got = append(got, tok.Literal)
		}
	}
	if strings.Join(got, ",") != "log10,Log10,x2" {
		t.Errorf("identifiers = %v", got)
	}
}

func TestIsOperator(t *testing.T) {
	for _, tt := range []TokenType{PLUS, MINUS, ASTERISK, SLASH, CARET, PERCENT} {
		if !tt.IsOperator() {
			t.Errorf("%s should be an operator", tt)
		}
	}
	for _, tt := range []TokenType{NUMBER, IDENT, LPAREN, RPAREN, EOF, ILLEGAL} {
		if tt.IsOperator() {
			t.Errorf("%s should not be an operator", tt)
		}
	}
}

func BenchmarkTokenize(b *testing.B) {
	input := strings.Repeat("sqrt(16)+2^3*4%-1/3+", 20) + "1"
	for i := 0; i < b.N; i++ {
		Tokenize(input)
	}
}
