// Package wallet turns a BIP39 mnemonic into the seed the wallet managers
// sign with, stores it encrypted on disk and derives BIP44 keys from it.
package wallet

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrInvalidWordCount indicates the mnemonic must be 12 or 24 words.
	ErrInvalidWordCount = errors.New("word count must be 12 or 24")

	// ErrInvalidMnemonic indicates the mnemonic is not valid.
	ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

	whitespaceRegex = regexp.MustCompile(`\s+`)

	// numberedListRegex matches numbered list prefixes like "1." "2)" "3:"
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)

	// bulletListRegex matches bullet prefixes like "- " "* " "• "
	bulletListRegex = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// GenerateMnemonic creates a fresh 12 or 24 word BIP39 mnemonic.
func GenerateMnemonic(wordCount int) (string, error) {
	if wordCount != 12 && wordCount != 24 {
		return "", ErrInvalidWordCount
	}

	// 32 bits of entropy per 3 words.
	entropy, err := bip39.NewEntropy(wordCount / 3 * 32)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// ValidateMnemonic checks word count, word validity and checksum.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonicInput(mnemonic)

	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return ErrInvalidMnemonic
	}

	if _, err := bip39.MnemonicToByteArray(normalized); err != nil {
		return ErrInvalidMnemonic
	}
	return nil
}

// NormalizeMnemonicInput lowercases the input, strips list numbering and
// bullets, turns commas into spaces and collapses whitespace.
func NormalizeMnemonicInput(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// MnemonicToSeed converts a BIP39 mnemonic phrase to a 64-byte seed.
// The returned seed should be zeroed after use.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return bip39.NewSeed(NormalizeMnemonicInput(mnemonic), passphrase), nil
}

// IsValidWord checks if a word is in the BIP39 word list.
func IsValidWord(word string) bool {
	_, ok := bip39.GetWordIndex(strings.ToLower(word))
	return ok
}

// MaxTypoDistance is the largest edit distance still offered as a fix.
const MaxTypoDistance = 2

// TypoInfo describes one word that is not in the BIP39 word list.
type TypoInfo struct {
	Index      int // 0-based position in the mnemonic
	Word       string
	Suggestion string // closest BIP39 word, empty if none is close enough
	Distance   int
}

// SuggestWord returns the BIP39 word closest to input, or "" when none is
// within MaxTypoDistance.
func SuggestWord(input string) string {
	word, _ := closestWord(strings.ToLower(input))
	return word
}

func closestWord(input string) (string, int) {
	best, bestDist := "", math.MaxInt
	for _, candidate := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(input, candidate)
		if d < bestDist {
			best, bestDist = candidate, d
		}
		if d == 0 {
			break
		}
	}
	if bestDist > MaxTypoDistance {
		return "", 0
	}
	return best, bestDist
}

// DetectTypos returns every word of the mnemonic that is not a BIP39 word.
func DetectTypos(mnemonic string) []TypoInfo {
	var typos []TypoInfo
	for i, word := range strings.Fields(NormalizeMnemonicInput(mnemonic)) {
		if IsValidWord(word) {
			continue
		}
		suggestion, dist := closestWord(word)
		typos = append(typos, TypoInfo{Index: i, Word: word, Suggestion: suggestion, Distance: dist})
	}
	return typos
}

// FormatTypoSuggestions renders one line per typo, 1-based:
//
//	Word 3: 'abandn' - did you mean 'abandon'?
func FormatTypoSuggestions(typos []TypoInfo) string {
	var sb strings.Builder
	for i, typo := range typos {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "Word %d: '%s'", typo.Index+1, typo.Word)
		if typo.Suggestion == "" {
			sb.WriteString(" is not a valid BIP39 word")
			continue
		}
		fmt.Fprintf(&sb, " - did you mean '%s'?", typo.Suggestion)
	}
	return sb.String()
}
