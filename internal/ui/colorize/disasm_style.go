package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// EVMDark is the listing style: gray offsets, white mnemonics, gold block
// starts, pink push data and green resolved jump targets.
var EVMDark = styles.Register(chroma.MustNewStyle("evm-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",

	chroma.NameLabel:       "#4F4F4F",
	chroma.Keyword:         "#FFFFFF",
	chroma.KeywordReserved: "bold #FFD700",
	chroma.KeywordPseudo:   "#FF8700",

	chroma.LiteralNumberHex: "#FF5F87",

	chroma.Comment: "#6A9955",
}))
