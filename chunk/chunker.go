package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy selects how text is divided into chunks.
type Strategy string

const (
	// StrategyFixed slides a fixed-size window over the text.
	StrategyFixed Strategy = "fixed"
	// StrategySemantic accumulates paragraphs and splits oversized
	// paragraphs on sentence boundaries.
	StrategySemantic Strategy = "semantic"
)

// ParseStrategy converts a strategy name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case StrategyFixed:
		return StrategyFixed, nil
	case StrategySemantic:
		return StrategySemantic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Options configures chunking.
type Options struct {
	// Size is the soft maximum chunk length in runes.
	Size int
	// Overlap is the number of runes shared between consecutive chunks.
	// Must be smaller than Size.
	Overlap int
	// Strategy selects the splitting algorithm.
	Strategy Strategy
}

// DefaultOptions returns chunking defaults suitable for prose documents.
func DefaultOptions() Options {
	return Options{
		Size:     1000,
		Overlap:  200,
		Strategy: StrategySemantic,
	}
}

// Validate checks the options for configuration errors. An overlap that is
// not smaller than the size would produce a non-advancing window and is
// rejected outright.
func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOptions, o.Size)
	}
	if o.Overlap < 0 {
		return fmt.Errorf("%w: overlap cannot be negative, got %d", ErrInvalidOptions, o.Overlap)
	}
	if o.Overlap >= o.Size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidOptions, o.Overlap, o.Size)
	}
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	return nil
}

// sentenceBoundary matches end-of-sentence punctuation followed by whitespace.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// Split divides text into an ordered sequence of non-empty chunks according
// to the options. It returns ErrNoChunks when the text is blank and at least
// one chunk otherwise.
func Split(text string, opts Options) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: input text is blank", ErrNoChunks)
	}

	var chunks []string
	switch opts.Strategy {
	case StrategySemantic:
		chunks = splitSemantic(text, opts.Size, opts.Overlap)
	default:
		chunks = splitFixed(text, opts.Size, opts.Overlap)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: text of %d runes yielded nothing", ErrNoChunks, len([]rune(text)))
	}
	return chunks, nil
}

// splitFixed slides a window of size runes over the text, advancing by
// size-overlap each step. Windows that are entirely blank are skipped.
func splitFixed(text string, size, overlap int) []string {
	runes := []rune(text)
	step := size - overlap

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[i:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// splitSemantic splits text on blank-line boundaries into paragraphs and
// accumulates them into chunks of at most size runes. A paragraph that is
// itself larger than size is further split on sentence boundaries. Each
// flushed chunk seeds the next buffer with its last overlap runes.
func splitSemantic(text string, size, overlap int) []string {
	var chunks []string
	current := ""

	flush := func() {
		trimmed := strings.TrimSpace(current)
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current = tail(current, overlap)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if runeLen(current)+runeLen(para) > size {
			if current != "" {
				flush()
			}

			if runeLen(para) > size {
				for _, sentence := range splitSentences(para) {
					if runeLen(current)+runeLen(sentence) > size && current != "" {
						flush()
					}
					if current == "" {
						current = sentence
					} else {
						current += " " + sentence
					}
				}
			} else if current == "" {
				current = para
			} else {
				current += " " + para
			}
			continue
		}

		if current == "" {
			current = para
		} else {
			current += "\n\n" + para
		}
	}

	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// splitSentences divides a paragraph on punctuation followed by whitespace,
// keeping the punctuation with the preceding sentence.
func splitSentences(para string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(para, -1) {
		// loc[0] is the punctuation mark; keep it, drop the whitespace.
		sentence := strings.TrimSpace(para[start : loc[0]+1])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(para[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// tail returns the last n runes of s, or all of s if it is shorter.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int {
	return len([]rune(s))
}
