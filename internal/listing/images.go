package listing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstImageURL extracts the src of the first <img> in a fragment of
// scraped description HTML. Yahoo Auction descriptions usually embed the
// gallery photos inline, so this serves as the MAIN_IMAGE fallback when a
// record has no picture_url of its own.
func FirstImageURL(html string) string {
	if !strings.Contains(html, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img[src]").First().Attr("src")
	src = strings.TrimSpace(src)
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") && !strings.HasPrefix(src, "//") {
		return ""
	}
	return src
}
