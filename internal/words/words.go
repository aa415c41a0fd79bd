// Package words owns the word pool and allow-list used by run engines.
//
// Lists are loaded once: from a configured file when present, otherwise
// from a small embedded default so the server boots without any data
// files. Words are normalized to uppercase ASCII (the source word bank
// carries accented letters).
package words

import (
	"bufio"
	"crypto/rand"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"strings"
)

//go:embed default_words.txt
var embeddedWords string

// Service provides dictionary lookups and random word selection.
// Read-only after construction; safe for concurrent use without locking.
type Service struct {
	pool       []string
	allowed    map[string]struct{}
	wordLength int
}

// Options configures word list loading.
type Options struct {
	DictionaryPath string // optional; embedded defaults used when empty or unreadable
	WordLength     int    // defaults to 5
}

// New loads the word list and builds lookup structures.
func New(opts Options) (*Service, error) {
	length := opts.WordLength
	if length <= 0 {
		length = 5
	}

	entries, err := loadEntries(opts.DictionaryPath)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		allowed:    make(map[string]struct{}, len(entries)),
		wordLength: length,
	}
	for _, entry := range entries {
		word := Normalize(entry)
		if len(word) != length || !isAlpha(word) {
			continue
		}
		if _, dup := svc.allowed[word]; dup {
			continue
		}
		svc.allowed[word] = struct{}{}
		svc.pool = append(svc.pool, word)
	}

	if len(svc.pool) == 0 {
		return nil, fmt.Errorf("word list is empty after filtering to %d-letter words", length)
	}
	return svc, nil
}

// NewFromList builds a service from an explicit word list. Intended for tests.
func NewFromList(wordLength int, list ...string) (*Service, error) {
	svc := &Service{
		allowed:    make(map[string]struct{}, len(list)),
		wordLength: wordLength,
	}
	for _, entry := range list {
		word := Normalize(entry)
		if len(word) != wordLength {
			return nil, fmt.Errorf("word %q is not %d letters", entry, wordLength)
		}
		if _, dup := svc.allowed[word]; dup {
			continue
		}
		svc.allowed[word] = struct{}{}
		svc.pool = append(svc.pool, word)
	}
	if len(svc.pool) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return svc, nil
}

// IsAllowed reports whether a word is a valid guess.
func (s *Service) IsAllowed(word string) bool {
	_, ok := s.allowed[Normalize(word)]
	return ok
}

// Pick selects a uniform-random word not present in excluded.
// The second return is false when the pool is exhausted.
func (s *Service) Pick(excluded map[string]struct{}) (string, bool) {
	available := make([]string, 0, len(s.pool))
	for _, word := range s.pool {
		if _, used := excluded[word]; !used {
			available = append(available, word)
		}
	}
	if len(available) == 0 {
		return "", false
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(available))))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back to first.
		return available[0], true
	}
	return available[idx.Int64()], true
}

// Total returns the pool size.
func (s *Service) Total() int { return len(s.pool) }

// Length returns the configured word length.
func (s *Service) Length() int { return s.wordLength }

// Normalize uppercases a word and strips the accents the source word
// bank uses, so guesses compare byte-wise against pool entries.
func Normalize(word string) string {
	upper := strings.ToUpper(strings.TrimSpace(word))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		b.WriteRune(foldAccent(r))
	}
	return b.String()
}

func foldAccent(r rune) rune {
	switch r {
	case 'Á', 'À', 'Â', 'Ã', 'Ä':
		return 'A'
	case 'É', 'È', 'Ê', 'Ë':
		return 'E'
	case 'Í', 'Ì', 'Î', 'Ï':
		return 'I'
	case 'Ó', 'Ò', 'Ô', 'Õ', 'Ö':
		return 'O'
	case 'Ú', 'Ù', 'Û', 'Ü':
		return 'U'
	case 'Ç':
		return 'C'
	case 'Ñ':
		return 'N'
	default:
		return r
	}
}

func isAlpha(word string) bool {
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func loadEntries(path string) ([]string, error) {
	if path != "" {
		file, err := os.Open(path)
		if err == nil {
			defer file.Close()
			var entries []string
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					entries = append(entries, line)
				}
			}
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read dictionary %s: %w", path, err)
			}
			return entries, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open dictionary %s: %w", path, err)
		}
	}

	var entries []string
	for _, line := range strings.Split(embeddedWords, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}
