package rag

import (
	"strings"
	"unicode"
)

// Chunk is one bounded-length fragment of a message body.
type Chunk struct {
	Text  string
	Size  int // rune count
	Index int
}

// ChunkerConfig bounds chunk size in runes. Overlap must be smaller
// than MaxRunes.
type ChunkerConfig struct {
	MaxRunes     int
	OverlapRunes int
}

// DefaultChunkerConfig matches the message-ingestion defaults: 500-rune
// chunks with a 50-rune tail carried into the next chunk.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxRunes:     500,
		OverlapRunes: 50,
	}
}

// ChunkText splits text into ordered chunks of at most cfg.MaxRunes runes,
// breaking on paragraph and sentence boundaries first, then words, then
// hard rune cuts. Adjacent chunks share up to cfg.OverlapRunes runes of
// trailing context. Deterministic for a given input and config; never
// emits an empty chunk. Input that already fits is returned as a single
// chunk, verbatim.
func ChunkText(text string, cfg ChunkerConfig) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= cfg.MaxRunes {
		return []Chunk{{Text: text, Size: runeLen(text), Index: 0}}
	}

	sentences := splitSentences(text)

	var chunks []Chunk
	var current strings.Builder
	currentRunes := 0
	chunkIndex := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		t := strings.TrimSpace(current.String())
		chunks = append(chunks, Chunk{Text: t, Size: runeLen(t), Index: chunkIndex})
		chunkIndex++
		current.Reset()
		currentRunes = 0
	}

	for _, sentence := range sentences {
		sentenceRunes := runeLen(sentence)

		// A sentence that cannot fit on its own is split by words.
		if sentenceRunes > cfg.MaxRunes {
			flush()
			for _, piece := range splitLongSentence(sentence, cfg.MaxRunes) {
				chunks = append(chunks, Chunk{Text: piece, Size: runeLen(piece), Index: chunkIndex})
				chunkIndex++
			}
			continue
		}

		if currentRunes > 0 && currentRunes+1+sentenceRunes > cfg.MaxRunes {
			tail := tailWords(strings.TrimSpace(current.String()), cfg.OverlapRunes)
			flush()
			if tail != "" && runeLen(tail)+1+sentenceRunes <= cfg.MaxRunes {
				current.WriteString(tail)
				currentRunes = runeLen(tail)
			}
		}

		if currentRunes > 0 {
			current.WriteString(" ")
			currentRunes++
		}
		current.WriteString(sentence)
		currentRunes += sentenceRunes
	}

	flush()
	return chunks
}

// splitSentences breaks text into sentences, paragraph by paragraph.
// Soft line wraps inside a paragraph collapse to single spaces.
func splitSentences(text string) []string {
	sentenceEnders := map[rune]bool{
		'.': true, '!': true, '?': true,
	}
	// Full-width enders close a sentence without a following space.
	fullWidthEnders := map[rune]bool{
		'。': true, '！': true, '？': true, '…': true,
	}

	var sentences []string
	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)

		for i, r := range runes {
			current.WriteRune(r)
			if sentenceEnders[r] || fullWidthEnders[r] {
				if fullWidthEnders[r] || i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
					if s := strings.TrimSpace(current.String()); s != "" {
						sentences = append(sentences, s)
					}
					current.Reset()
				}
			}
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}
	return sentences
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")

	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitLongSentence packs words into pieces of at most maxRunes runes.
// A single word longer than maxRunes is cut at rune boundaries.
func splitLongSentence(sentence string, maxRunes int) []string {
	var pieces []string
	var current strings.Builder
	currentRunes := 0

	emit := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			currentRunes = 0
		}
	}

	for _, word := range strings.Fields(sentence) {
		wordRunes := runeLen(word)

		if wordRunes > maxRunes {
			emit()
			runes := []rune(word)
			for start := 0; start < len(runes); start += maxRunes {
				end := min(start+maxRunes, len(runes))
				pieces = append(pieces, string(runes[start:end]))
			}
			continue
		}

		if currentRunes > 0 && currentRunes+1+wordRunes > maxRunes {
			emit()
		}
		if currentRunes > 0 {
			current.WriteString(" ")
			currentRunes++
		}
		current.WriteString(word)
		currentRunes += wordRunes
	}

	emit()
	return pieces
}

// tailWords returns whole trailing words of text totalling at most
// budget runes, preserving order.
func tailWords(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	words := strings.Fields(text)
	total := 0
	start := len(words)

	for i := len(words) - 1; i >= 0; i-- {
		w := runeLen(words[i])
		cost := w
		if start < len(words) {
			cost++ // joining space
		}
		if total+cost > budget {
			break
		}
		total += cost
		start = i
	}

	if start == len(words) {
		return ""
	}
	return strings.Join(words[start:], " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}
