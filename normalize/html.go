package normalize

import (
	"html"
	"regexp"
	"unicode/utf8"
)

// Pre-compiled expressions for HTML stripping.
var (
	scriptTagRE   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRE    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlCommentRE = regexp.MustCompile(`(?s)<!--.*?-->`)
	anyTagRE      = regexp.MustCompile(`<[^>]+>`)
)

// htmlText strips markup, script and style content from an HTML payload
// and returns the whitespace-normalized text.
func htmlText(payload []byte) string {
	content := string(payload)
	if !utf8.ValidString(content) {
		content = string([]rune(content))
	}

	content = scriptTagRE.ReplaceAllString(content, " ")
	content = styleTagRE.ReplaceAllString(content, " ")
	content = htmlCommentRE.ReplaceAllString(content, " ")
	content = anyTagRE.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)

	return cleanText(content)
}
