package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// OCRText is plain text recovered from an OCR engine with its mean word confidence
type OCRText struct {
	Text       string
	Confidence float64 // 0.0-1.0
	Pages      int
	Words      int
}

// ParseHOCR reads Tesseract hOCR output. Word confidences come from the
// x_wconf property; words reporting 0 or less are left out of the mean.
// Documents without ocrx_word elements are read as plain HTML with zero
// confidence.
func ParseHOCR(r io.Reader) (*OCRText, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	var (
		buf      strings.Builder
		confSum  float64
		confN    int
		result   OCRText
		lineOpen bool
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			}
			classes := strings.Fields(attr(n, "class"))
			switch {
			case hasClass(classes, "ocr_page"):
				result.Pages++
			case hasClass(classes, "ocr_line"), hasClass(classes, "ocrx_line"),
				hasClass(classes, "ocr_header"), hasClass(classes, "ocr_caption"), hasClass(classes, "ocr_textfloat"):
				if lineOpen {
					buf.WriteString("\n")
				}
				lineOpen = false
			case hasClass(classes, "ocrx_word"):
				word := strings.TrimSpace(nodeText(n))
				if word == "" {
					return
				}
				if lineOpen {
					buf.WriteString(" ")
				}
				buf.WriteString(word)
				lineOpen = true
				result.Words++
				if conf, ok := wordConfidence(attr(n, "title")); ok && conf > 0 {
					confSum += conf
					confN++
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result.Text = strings.TrimSpace(buf.String())
	if result.Words == 0 {
		// Plain HTML export without word boxes
		result.Text = visibleText(doc)
	}
	if confN > 0 {
		result.Confidence = confSum / float64(confN) / 100
	}
	return &result, nil
}

// wordConfidence extracts "x_wconf NN" from an hOCR title attribute
func wordConfidence(title string) (float64, bool) {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) == 2 && fields[0] == "x_wconf" {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classes []string, want string) bool {
	for _, c := range classes {
		if c == want {
			return true
		}
	}
	return false
}

// nodeText concatenates all text below n
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// visibleText extracts text nodes from HTML, one block per line, skipping scripts/styles
func visibleText(n *html.Node) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				lines = append(lines, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(lines, "\n")
}
