package libtable

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// tableLexer tokenizes library table files. Tables are a small, flat
// S-expression dialect so a handful of rules is enough.
var tableLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Ident", Pattern: `[^\s()"]+`},
})

// tableFile is the parse tree of a whole table.
// Example: (fp_lib_table (version 7) (lib (name "X") (type "KiCad") ...))
type tableFile struct {
	Kind  string       `LParen @Ident`
	Items []*tableItem `@@* RParen`
}

type tableItem struct {
	Version *int      `  LParen "version" @Ident RParen`
	Lib     *libEntry `| LParen "lib" @@ RParen`
}

type libEntry struct {
	Fields []*libField `@@*`
}

// libField is one (key value...) pair. Flags such as (disabled) have no value.
type libField struct {
	Key    string   `LParen @Ident`
	Values []string `@(String | Ident)* RParen`
}

func buildParser() (*participle.Parser[tableFile], error) {
	return participle.Build[tableFile](
		participle.Lexer(tableLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
}
