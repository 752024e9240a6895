// Package textutil provides text processing helpers shared by the
// ingestion and retrieval paths: content fingerprinting, chunk
// splitting, and vector similarity.
package textutil

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"regexp"
	"strings"
)

// fingerprintLen is the number of hex characters kept from the MD5
// digest. Eight characters keep ids short while collisions stay
// negligible at knowledge-base scale.
const fingerprintLen = 8

// Fingerprint returns the document id for a byte payload: the MD5 of
// the raw bytes truncated to the first 8 hex characters. Identity
// depends only on content, never on the filename.
func Fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// SplitWords splits text into fixed windows of chunkSize words.
// Whitespace runs collapse to single spaces, so re-joined chunks are
// normalized. Blank input yields no chunks.
func SplitWords(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+chunkSize-1)/chunkSize)
	for i := 0; i < len(words); i += chunkSize {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// SplitIntoChunks splits text into rune windows of chunkSize with the
// given overlap between consecutive windows. Parameters are clamped:
// non-positive chunk size falls back to 1000, and overlap is reduced
// below the chunk size so the window always advances.
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TruncateString shortens s to at most maxLen runes, appending an
// ellipsis when truncation happens.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a user-supplied filename to a safe form for
// on-disk storage: path separators and shell metacharacters become
// underscores, leading dots are stripped.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	// Keep only the final path element in case the client sent a path.
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "unnamed"
	}
	return name
}
