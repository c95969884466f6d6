package deadcode

import (
	"regexp"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:-[\w$]+)*`)

// referenceIndex maps every token to the set of files it appears in.
// Hyphenated tokens such as module names in import paths are indexed both
// whole and by part.
type referenceIndex struct {
	files map[string]*roaring.Bitmap
}

func newReferenceIndex() *referenceIndex {
	return &referenceIndex{files: make(map[string]*roaring.Bitmap)}
}

// add records the tokens of one file.
func (idx *referenceIndex) add(fileID uint32, tokens map[string]struct{}) {
	for tok := range tokens {
		bm, ok := idx.files[tok]
		if !ok {
			bm = roaring.New()
			idx.files[tok] = bm
		}
		bm.Add(fileID)
	}
}

// referencesExcluding counts the files containing token other than self.
func (idx *referenceIndex) referencesExcluding(token string, self uint32) int {
	bm, ok := idx.files[token]
	if !ok {
		return 0
	}
	n := int(bm.GetCardinality())
	if bm.Contains(self) {
		n--
	}
	return n
}

// tokenize extracts the distinct tokens of a source file.
func tokenize(content []byte) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, raw := range tokenPattern.FindAll(content, -1) {
		tok := string(raw)
		tokens[tok] = struct{}{}
		if strings.Contains(tok, "-") {
			for _, part := range strings.Split(tok, "-") {
				if part != "" {
					tokens[part] = struct{}{}
				}
			}
		}
	}
	return tokens
}
