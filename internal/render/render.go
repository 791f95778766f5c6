// Package render turns article markdown into the HTML preview shown next
// to the editor.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/cache"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// HighlightStyle is the chroma style applied to fenced code blocks in
// previews.
const HighlightStyle = "catppuccin-mocha"

func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	style := styles.Get(HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	err = formatter.Format(&buf, style, iterator)
	if err != nil {
		return code
	}

	return html.UnescapeString(buf.String())
}

// Mutex to protect the check-render-set operation in RenderPreviewCached
var renderCacheMutex sync.Mutex

// RenderPreviewCached renders markdown keyed by its content hash, so a
// draft that has not changed since the last preview costs a map lookup.
func RenderPreviewCached(md []byte, contentHash string) []byte {
	if contentHash == "" {
		renderLogger.Warn().Msg("Content hash is empty, skipping cache check")
		return RenderPreview(md)
	}

	if cached, found := cache.GetRenderedPreview(contentHash); found {
		renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache hit for rendered preview")
		return cached
	}

	renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache miss for rendered preview")
	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	rendered := RenderPreview(md)
	cache.SetRenderedPreview(contentHash, rendered)

	return rendered
}

func RenderPreview(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				highlighted := HighlightCode(string(code.Literal), lang)
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", highlighted)
				return ast.GoToNext, true
			}

			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.DefinitionLists | parser.MathJax |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// WarmCache pre-renders markdown asynchronously so the first preview of a
// freshly loaded draft is already cached.
func WarmCache(md []byte, contentHash string) {
	go func() {
		RenderPreviewCached(md, contentHash)
		renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache warming completed")
	}()
}
