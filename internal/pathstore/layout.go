package pathstore

import (
	"fmt"
	"strings"
)

// Key layout for published stories:
//
//	sef/documents/{doc}/meta
//	sef/documents/{doc}/chapters/{i}
//	sef/documents/{doc}/chapters/{i}/pages/{j}
//	sef/by_hash/{sha256}/{doc}
const (
	DocumentsRoot = "sef/documents"
	HashRoot      = "sef/by_hash"
)

func DocumentKey(docID string) string { return DocumentsRoot + "/" + docID }

func MetaKey(docID string) string { return DocumentKey(docID) + "/meta" }

func ChapterKey(docID string, chapter int) string {
	return fmt.Sprintf("%s/chapters/%d", DocumentKey(docID), chapter)
}

func PageKey(docID string, chapter, page int) string {
	return fmt.Sprintf("%s/pages/%d", ChapterKey(docID, chapter), page)
}

func HashPrefix(hash string) string { return HashRoot + "/" + hash }

func HashKey(hash, docID string) string { return HashPrefix(hash) + "/" + docID }

// LastSegment returns the final component of a key as reported by a scan,
// which may use either '/' or '.' as the separator.
func LastSegment(key string) string {
	if i := strings.LastIndexAny(key, "/."); i >= 0 {
		return key[i+1:]
	}
	return key
}

// MetaDocumentID returns the document ID of a meta key from a scan, or ""
// when key is not a meta key.
func MetaDocumentID(key string) string {
	if len(key) <= len("meta") || LastSegment(key) != "meta" {
		return ""
	}
	return LastSegment(key[:len(key)-len("meta")-1])
}
