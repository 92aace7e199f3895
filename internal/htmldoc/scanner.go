package htmldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ErrInvalidEncoding is returned when a document's bytes are not valid
// UTF-8 and no declared encoding could decode them.
var ErrInvalidEncoding = errors.New("document is not valid utf-8")

// badSchemes are reference prefixes that are filtered at extraction time.
// The checker resolves only local targets; references to these schemes
// never become UsedLinks.
var badSchemes = []string{
	"http://", "https://", "irc://", "ftp://", "mailto:", "data:",
}

// linkAttrs maps a tag name to the attribute that carries its link target.
// Static lookup keeps the scanner's hot path branch-predictable.
var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
	"iframe": "src",
	"area":   "href",
	"object": "data",
}

// paragraphTags are the block-level tags whose text content is
// fingerprinted for paragraph context.
var paragraphTags = map[string]bool{
	"p":  true,
	"li": true,
	"dt": true,
	"dd": true,
}

// ScanOptions controls one document scan.
type ScanOptions struct {
	// CheckAnchors enables DefinedLink emission for id and a/name
	// attributes and preserves fragments on extracted uses.
	CheckAnchors bool

	// GetParagraphs enables paragraph tracking and fingerprint back-fill.
	GetParagraphs bool

	// Walker fingerprints paragraph text. Defaults to NopWalker.
	Walker ParagraphWalker
}

// Links scans the document's file and appends every link occurrence to
// sink in document order. The sink is caller-owned and never cleared, so
// links can accumulate across documents. All returned errors are terminal
// for this document only.
func (d *Document) Links(sink *[]Link, opts ScanOptions) error {
	f, err := os.Open(d.Path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	return d.LinksFromReader(sink, f, opts)
}

// LinksFromReader scans one document's content from r. See Links.
func (d *Document) LinksFromReader(sink *[]Link, r io.Reader, opts ScanOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	data, err = ensureUTF8(data)
	if err != nil {
		return err
	}

	s := &linkScanner{
		doc:              d,
		sink:             sink,
		checkAnchors:     opts.CheckAnchors,
		getParagraphs:    opts.GetParagraphs,
		walker:           opts.Walker,
		lastParagraphIdx: len(*sink),
	}
	if s.walker == nil {
		s.walker = NopWalker{}
	}

	return s.run(bytes.NewReader(data))
}

// ensureUTF8 returns data decoded to valid UTF-8. Documents that are not
// UTF-8 are decoded through the encoding they declare, via a BOM or a meta
// charset in the first 1024 bytes. Bytes with no usable declaration fail
// with ErrInvalidEncoding.
func ensureUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}

	enc, name := declaredEncoding(data)
	if enc == nil {
		return nil, ErrInvalidEncoding
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil || !utf8.Valid(decoded) {
		return nil, fmt.Errorf("%w (declared charset %q)", ErrInvalidEncoding, name)
	}
	return decoded, nil
}

// declaredEncoding finds the encoding the document declares itself.
// DetermineEncoding is certain only for a BOM here (there is no content
// type to pass); meta charsets are prescanned separately, because the
// uncertain windows-1252 fallback must not count as a declaration.
func declaredEncoding(data []byte) (encoding.Encoding, string) {
	if enc, name, certain := charset.DetermineEncoding(data, ""); certain {
		return enc, name
	}
	if name := metaCharset(data); name != "" {
		if enc, canonical := charset.Lookup(name); enc != nil {
			return enc, canonical
		}
	}
	return nil, ""
}

// metaCharset scans the head of the document for a charset declaration,
// in either the <meta charset=...> or the http-equiv Content-Type form.
// Like a browser prescan, only the first 1024 bytes are considered.
func metaCharset(data []byte) string {
	if len(data) > 1024 {
		data = data[:1024]
	}

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}

			var charsetAttr, httpEquiv, content string
			for {
				k, v, more := z.TagAttr()
				switch string(k) {
				case "charset":
					charsetAttr = string(v)
				case "http-equiv":
					httpEquiv = string(v)
				case "content":
					content = string(v)
				}
				if !more {
					break
				}
			}

			if charsetAttr != "" {
				return charsetAttr
			}
			if strings.EqualFold(httpEquiv, "content-type") {
				if cs := charsetFromContentType(content); cs != "" {
					return cs
				}
			}
		}
	}
}

// charsetFromContentType extracts the charset parameter from a
// Content-Type value like "text/html; charset=windows-1252".
func charsetFromContentType(v string) string {
	const param = "charset="
	i := strings.Index(strings.ToLower(v), param)
	if i < 0 {
		return ""
	}
	cs := v[i+len(param):]
	if j := strings.IndexAny(cs, "; \t"); j >= 0 {
		cs = cs[:j]
	}
	return strings.Trim(cs, `"'`)
}

// linkScanner is the streaming state machine that walks one document's
// tag/text events and emits links. It owns no storage; hrefs go to the
// document's Store and links to the caller's sink.
type linkScanner struct {
	doc  *Document
	sink *[]Link

	checkAnchors  bool
	getParagraphs bool
	walker        ParagraphWalker

	// lastParagraphIdx marks the position in the sink where the current
	// paragraph's uses start, for fingerprint back-fill.
	lastParagraphIdx int

	// inParagraph reports whether the scanner is inside a tracked
	// paragraph-bearing element. A mismatched close tag can leave this
	// set until end of document; trailing uses then keep an absent
	// fingerprint, which is acceptable degraded behavior.
	inParagraph bool
}

// run pulls tokenizer events until end of document. Malformed markup is
// never an error; only the reader can fail here.
func (s *linkScanner) run(r io.Reader) error {
	z := html.NewTokenizer(r)

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to tokenize document: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			s.handleStartTag(z)

		case html.EndTagToken:
			name, _ := z.TagName()
			s.handleEndTag(string(name))

		case html.TextToken:
			if s.getParagraphs && s.inParagraph {
				s.walker.Update(string(z.Text()))
			}
		}
	}
}

// attr is one tag attribute in document order.
type attr struct {
	key string
	val string
}

// handleStartTag processes one opening tag: paragraph bookkeeping first,
// then link-use extraction, then anchor definitions. The emission order
// within one tag (uses, then a/name, then id) is an observable contract
// for deterministic output.
func (s *linkScanner) handleStartTag(z *html.Tokenizer) {
	nameBytes, hasAttr := z.TagName()
	name := string(nameBytes)

	if paragraphTags[name] {
		s.inParagraph = true
		s.lastParagraphIdx = len(*s.sink)
		// Discard any stray accumulation left by malformed nesting.
		s.walker.FinishParagraph()
	}

	if !hasAttr {
		return
	}

	var attrs []attr
	for {
		k, v, more := z.TagAttr()
		attrs = append(attrs, attr{key: string(k), val: string(v)})
		if !more {
			break
		}
	}

	if wanted, ok := linkAttrs[name]; ok {
		for _, a := range attrs {
			if a.key == wanted && !hasBadScheme(a.val) {
				*s.sink = append(*s.sink, &UsedLink{
					Href: s.doc.Join(s.checkAnchors, a.val),
					Path: s.doc.Path,
				})
			}
		}
	}

	if s.checkAnchors {
		if name == "a" {
			s.emitAnchorDefs(attrs, "name")
		}
		s.emitAnchorDefs(attrs, "id")
	}
}

// emitAnchorDefs emits a DefinedLink for every attribute named key.
func (s *linkScanner) emitAnchorDefs(attrs []attr, key string) {
	for _, a := range attrs {
		if a.key == key {
			*s.sink = append(*s.sink, &DefinedLink{
				Href: s.doc.Join(true, "#"+a.val),
			})
		}
	}
}

// handleEndTag closes a tracked paragraph: the fingerprint of its text is
// back-filled onto every use emitted since the paragraph opened.
// Definitions in that range are left untouched.
func (s *linkScanner) handleEndTag(name string) {
	if !s.getParagraphs || !paragraphTags[name] {
		return
	}

	paragraph := s.walker.FinishParagraph()
	if s.inParagraph {
		for _, link := range (*s.sink)[s.lastParagraphIdx:] {
			if u, ok := link.(*UsedLink); ok {
				u.Paragraph = paragraph
			}
		}
		s.inParagraph = false
	}
	s.lastParagraphIdx = len(*s.sink)
}

// hasBadScheme reports whether ref targets an external scheme.
func hasBadScheme(ref string) bool {
	for _, scheme := range badSchemes {
		if strings.HasPrefix(ref, scheme) {
			return true
		}
	}
	return false
}
