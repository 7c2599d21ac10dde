package markup

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// emojiGlyphs maps shorthand names to their glyphs. Unknown names are left
// as literal text, so `:notaname:` passes through unchanged.
var emojiGlyphs = map[string]string{
	"smile":                    "😄",
	"grin":                     "😁",
	"joy":                      "😂",
	"wink":                     "😉",
	"heart":                    "❤️",
	"thumbsup":                 "👍",
	"+1":                       "👍",
	"thumbsdown":               "👎",
	"-1":                       "👎",
	"tada":                     "🎉",
	"rocket":                   "🚀",
	"fire":                     "🔥",
	"star":                     "⭐",
	"sparkles":                 "✨",
	"zap":                      "⚡",
	"bulb":                     "💡",
	"warning":                  "⚠️",
	"x":                        "❌",
	"white_check_mark":         "✅",
	"heavy_check_mark":         "✔️",
	"question":                 "❓",
	"exclamation":              "❗",
	"information_source":       "ℹ️",
	"memo":                     "📝",
	"book":                     "📖",
	"books":                    "📚",
	"bug":                      "🐛",
	"wrench":                   "🔧",
	"hammer":                   "🔨",
	"gear":                     "⚙️",
	"lock":                     "🔒",
	"unlock":                   "🔓",
	"key":                      "🔑",
	"mag":                      "🔍",
	"link":                     "🔗",
	"package":                  "📦",
	"folder":                   "📁",
	"calendar":                 "📅",
	"clock":                    "🕐",
	"hourglass":                "⌛",
	"chart_with_upwards_trend": "📈",
	"construction":             "🚧",
	"checkered_flag":           "🏁",
	"eyes":                     "👀",
	"wave":                     "👋",
	"clap":                     "👏",
	"pray":                     "🙏",
	"muscle":                   "💪",
	"brain":                    "🧠",
	"robot":                    "🤖",
	"penguin":                  "🐧",
	"snake":                    "🐍",
	"gopher":                   "🐹",
	"turtle":                   "🐢",
	"whale":                    "🐳",
	"earth_africa":             "🌍",
	"sunny":                    "☀️",
	"cloud":                    "☁️",
	"umbrella":                 "☔",
	"snowflake":                "❄️",
	"coffee":                   "☕",
	"pizza":                    "🍕",
	"cake":                     "🍰",
	"beer":                     "🍺",
	"100":                      "💯",
}

const maxEmojiNameLen = 40

type emojiParser struct{}

func (p *emojiParser) Trigger() []byte {
	return []byte{':'}
}

func (p *emojiParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 3 {
		return nil
	}

	end := -1
	limit := len(line)
	if limit > maxEmojiNameLen+2 {
		limit = maxEmojiNameLen + 2
	}
	for i := 1; i < limit; i++ {
		c := line[i]
		if c == ':' {
			end = i
			break
		}
		if !isEmojiNameByte(c) {
			return nil
		}
	}
	if end < 2 {
		return nil
	}

	glyph, ok := emojiGlyphs[string(line[1:end])]
	if !ok {
		return nil
	}

	block.Advance(end + 1)
	return ast.NewString([]byte(glyph))
}

func isEmojiNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '+' || c == '-':
		return true
	default:
		return false
	}
}

type emojiExtension struct{}

// EmojiExtension substitutes `:name:` shorthands with their glyphs.
var EmojiExtension goldmark.Extender = &emojiExtension{}

func (e *emojiExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&emojiParser{}, 999),
	))
}
