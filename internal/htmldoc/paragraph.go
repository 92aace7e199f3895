package htmldoc

import (
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/linkrot/internal/intern"
)

// Paragraph is an opaque fingerprint of one paragraph-level element's text.
// Implementations are comparable values usable as map keys, so fingerprints
// from different documents can be matched against each other.
type Paragraph interface {
	// String renders the fingerprint for human-readable reports.
	String() string
}

// ParagraphWalker consumes the text fragments of one block-level element at
// a time and produces one fingerprint per paragraph. Implementations are
// interchangeable strategies selected by the caller; the scanner never
// depends on a concrete one.
//
// A walker is not safe for concurrent use. Each scan owns its own.
type ParagraphWalker interface {
	// Update feeds one chunk of character data. Fragments may arrive in
	// several calls per paragraph and are concatenated in arrival order.
	Update(text string)

	// FinishParagraph closes the current accumulation, returns its
	// fingerprint, and resets state so the next paragraph starts clean.
	// With no prior Update calls it returns the well-defined
	// empty-paragraph fingerprint, not an error.
	FinishParagraph() Paragraph
}

// fingerprintSize is the digest length of hashed paragraph fingerprints.
// 16 bytes keeps the collision probability negligible for any realistic
// number of paragraphs while halving report noise versus a full digest.
const fingerprintSize = 16

// HashedParagraph is a blake2b digest of a paragraph's text.
type HashedParagraph [fingerprintSize]byte

// String returns the digest in hex form.
func (h HashedParagraph) String() string {
	return hex.EncodeToString(h[:])
}

// ParagraphHasher fingerprints paragraphs with a rolling blake2b hash.
// This is the cheap strategy: constant memory per paragraph, no retained
// text.
type ParagraphHasher struct {
	h hash.Hash
}

// NewParagraphHasher creates a hasher with a fresh digest state.
func NewParagraphHasher() *ParagraphHasher {
	h, err := blake2b.New(fingerprintSize, nil)
	if err != nil {
		// blake2b.New only fails for invalid key/size arguments.
		panic(err)
	}
	return &ParagraphHasher{h: h}
}

// Update feeds one text fragment into the rolling hash.
func (p *ParagraphHasher) Update(text string) {
	p.h.Write([]byte(text))
}

// FinishParagraph returns the digest of the accumulated text and resets
// the hash state.
func (p *ParagraphHasher) FinishParagraph() Paragraph {
	var out HashedParagraph
	copy(out[:], p.h.Sum(nil))
	p.h.Reset()
	return out
}

// TextParagraph is a verbatim-text fingerprint. Equality is byte-wise over
// the full paragraph text.
type TextParagraph struct {
	// Text is the concatenated character data of the paragraph, owned by
	// the walker's Store.
	Text string
}

// String returns the paragraph text itself.
func (t TextParagraph) String() string {
	return t.Text
}

// VerbatimWalker captures the full text of each paragraph instead of
// hashing it. Useful when reports should quote the paragraph, at the cost
// of retaining every paragraph's text in the Store.
type VerbatimWalker struct {
	store intern.Store
	buf   []byte
}

// NewVerbatimWalker creates a walker whose fingerprints are backed by store.
func NewVerbatimWalker(store intern.Store) *VerbatimWalker {
	return &VerbatimWalker{store: store}
}

// Update appends one text fragment to the current paragraph.
func (v *VerbatimWalker) Update(text string) {
	v.buf = append(v.buf, text...)
}

// FinishParagraph interns the accumulated text and resets the buffer.
func (v *VerbatimWalker) FinishParagraph() Paragraph {
	p := TextParagraph{Text: v.store.InternBytes(v.buf)}
	v.buf = v.buf[:0]
	return p
}

// NopWalker discards all text and returns nil fingerprints. Used when
// paragraph tracking is disabled.
type NopWalker struct{}

// Update discards the fragment.
func (NopWalker) Update(string) {}

// FinishParagraph returns nil.
func (NopWalker) FinishParagraph() Paragraph {
	return nil
}
