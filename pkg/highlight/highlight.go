// Package highlight renders plugin source code as syntax highlighted HTML.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var formatter = html.New(
	html.WithClasses(true),
	html.PreventSurroundingPre(true),
	html.ClassPrefix("hljs-"),
)

// JavaScript returns code as HTML spans classed for the site stylesheet, without a surrounding <pre>.
func JavaScript(code string) (string, error) {
	lexer := lexers.Get("javascript")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("failed to chroma.Lexer.Tokenise: %w", err)
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, styles.Fallback, iterator); err != nil {
		return "", fmt.Errorf("failed to html.Formatter.Format: %w", err)
	}
	return sb.String(), nil
}

// CodeBlock wraps highlighted code in the markup the plugin page template expects.
func CodeBlock(code string) (string, error) {
	highlighted, err := JavaScript(strings.TrimSpace(code))
	if err != nil {
		return "", err
	}
	return `<pre class="code-holder"><code class="hljs">` + highlighted + `</code></pre>`, nil
}
