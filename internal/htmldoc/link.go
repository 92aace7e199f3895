package htmldoc

// Link is one occurrence of a link in a document: either a use of an Href
// or the definition of an addressable anchor. Links are emitted in document
// order. The two implementations are *UsedLink and *DefinedLink.
type Link interface {
	// IntoParagraph returns the enclosing paragraph's fingerprint for a
	// use, and always nil for a definition.
	IntoParagraph() Paragraph
}

// UsedLink is an occurrence of a reference to an Href: the value of a
// link-bearing attribute such as a/href or img/src.
type UsedLink struct {
	// Href is the canonical target of the reference.
	Href Href

	// Path is the filesystem path of the document containing the use.
	Path string

	// Paragraph is the fingerprint of the enclosing paragraph element.
	// Nil when the use occurs outside any tracked paragraph or when
	// paragraph tracking is disabled. Back-filled when the paragraph's
	// closing tag is processed.
	Paragraph Paragraph
}

// IntoParagraph returns the fingerprint of the use's enclosing paragraph.
func (u *UsedLink) IntoParagraph() Paragraph {
	return u.Paragraph
}

// DefinedLink is an occurrence of an anchor definition: an id attribute or
// a legacy <a name="..."> attribute. Its Href carries the anchor name as
// the fragment.
type DefinedLink struct {
	// Href is the defining document's href plus "#<anchor-name>".
	Href Href
}

// IntoParagraph always returns nil; definitions carry no paragraph context.
func (d *DefinedLink) IntoParagraph() Paragraph {
	return nil
}
