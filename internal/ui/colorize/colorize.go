package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/styles"
)

// EVMListing tokenizes the "<pc> <MNEMONIC> 0x<hex> # == <target>" lines
// produced by the disassembler.
var EVMListing = chroma.MustNewLexer(
	&chroma.Config{
		Name:      "EVM listing",
		Aliases:   []string{"evmasm", "evm"},
		Filenames: []string{"*_opcodes.txt"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `#[^\n]*`, Type: chroma.Comment},
				{Pattern: `0x[0-9a-fA-F]*`, Type: chroma.LiteralNumberHex},
				{Pattern: `\d+`, Type: chroma.NameLabel},
				{Pattern: `JUMPDEST\b`, Type: chroma.KeywordReserved},
				{Pattern: `(JUMPI?|STOP|RETURN|REVERT|INVALID|SELFDESTRUCT|UNKNOWN)\b`, Type: chroma.KeywordPseudo},
				{Pattern: `[A-Z][A-Z0-9]*`, Type: chroma.Keyword},
				{Pattern: `\n`, Type: chroma.TextWhitespace},
				{Pattern: `[^\S\n]+`, Type: chroma.TextWhitespace},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
)

// Disabled reports whether colour output was switched off.
func Disabled() bool {
	return os.Getenv("GASCOMPARE_NO_COLOR") != ""
}

// getListingStyle returns the listing style with fallbacks
func getListingStyle() *chroma.Style {
	candidates := []string{"evm-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	// Try high-color first, then fallback
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeListing applies syntax highlighting to a rendered disassembly.
// The input is returned unchanged when colour is disabled.
func ColorizeListing(code string) (string, error) {
	if Disabled() {
		return code, nil
	}

	iterator, err := EVMListing.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getListingStyle(), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// ColorizeLine colorizes a single listing line, falling back to the plain
// line on any error.
func ColorizeLine(line string) string {
	out, err := ColorizeListing(line)
	if err != nil {
		return line
	}
	return out
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
