package htmlutil

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Title returns the whitespace-collapsed text of the page's <title>,
// or "" if the body has none.
func Title(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	nodes := doc.Find("title").Nodes
	if len(nodes) == 0 {
		return ""
	}
	title := strings.TrimSpace(GetText(nodes[0]))
	return innerWhitespace.ReplaceAllString(title, " ")
}

// Decode converts a response body to UTF-8. The charset is taken from a BOM,
// then the Content-Type header, then a <meta> tag. A body with no declared
// charset that is already valid UTF-8 is returned as is.
func Decode(body []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if !certain && utf8.Valid(body) {
		return string(body), nil
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode body as %s: %w", name, err)
	}
	return string(decoded), nil
}
