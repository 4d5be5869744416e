package relay

import (
	"fmt"
	"html"
	"strings"

	"xrelay/internal/twitter"
)

// renderCaption produces the HTML caption for a tweet. bodyText is the
// tweet text with short links already expanded. withHeader adds the author
// block and engagement counts used in relay mode; direct mode sends the
// body text alone.
func renderCaption(tw *twitter.Tweet, bodyText string, withHeader bool) string {
	body := html.EscapeString(bodyText)
	if !withHeader {
		return body
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📱 <b>%s</b> (@%s)\n", html.EscapeString(tw.User.Name), html.EscapeString(tw.User.ScreenName))
	sb.WriteString(body)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "❤️ %d | 🔄 %d | 💬 %d", tw.FavoriteCount, tw.RetweetCount, tw.ReplyCount)
	if tw.ViewCount > 0 {
		fmt.Fprintf(&sb, "\n👁️ %d views", tw.ViewCount)
	}
	return sb.String()
}
