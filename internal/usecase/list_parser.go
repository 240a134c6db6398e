package usecase

import (
	"log"
	"regexp"
	"strings"
)

// ListParser cleans raw shopping-list entries into searchable item names.
// "2 x Organic Whole Milk, 1 gallon" becomes "organic whole milk".
type ListParser struct {
	enableDebugLogging bool
}

// Compiled regex patterns for list entry cleanup
var (
	// Matches size/quantity suffixes like "1 gallon", "12 oz", "2 lb", "500 g", "1.5 liter"
	itemQuantityPattern = regexp.MustCompile(`\b\d+\.?\d*\s*(fl\s*)?oz\b|\b\d+\.?\d*\s*(fl\s*)?ounces?\b|\b\d+\.?\d*\s*lbs?\b|\b\d+\.?\d*\s*pounds?\b|\b\d+\.?\d*\s*ml\b|\b\d+\.?\d*\s*liters?\b|\b\d+\.?\d*\s*gallons?\b|\b\d+\.?\d*\s*quarts?\b|\b\d+\.?\d*\s*pints?\b|\b\d+\.?\d*\s*kg\b|\b\d+\.?\d*\s*grams?\b|\b\d+\.?\d*\s*g\b`)

	// Matches pack/count phrases like "12 pack", "pack of 6", "2 loaves", "1 carton"
	itemPackPattern = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\b\d+\s*loa(f|ves)\b|\b\d+\s*cans?\b|\b\d+\s*bottles?\b|\b\d+\s*cartons?\b|\b\d+\s*bags?\b|\b\d+\s*boxe?s?\b|\b\d+\s*bunche?s?\b`)

	// Matches a leading count like "2 x " or "3 " at the start of an entry
	leadingCountPattern = regexp.MustCompile(`^\s*\d+\.?\d*\s*(x\s+)?`)

	// Lone punctuation left behind after stripping
	orphanPunctPattern   = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctPattern = regexp.MustCompile(`[,\-;:(]+\s*$`)
	leadingPunctPattern  = regexp.MustCompile(`^\s*[,\-;:)]+`)

	// Multiple spaces cleanup
	collapseSpacePattern = regexp.MustCompile(`\s+`)

	// Entry separators for free-form lists
	listSplitPattern = regexp.MustCompile(`[\n,;]+`)
)

// itemNoiseWords are filler words that never narrow a product search
var itemNoiseWords = map[string]bool{
	// Articles and fillers
	"a":    true,
	"an":   true,
	"the":  true,
	"of":   true,
	"some": true,
	"few":  true,
	"x":    true,

	// Quantity words the regexes don't catch
	"dozen":  true,
	"couple": true,
	"pair":   true,
	"pcs":    true,
	"pc":     true,

	// Units left bare once their number is stripped ("milk, 1 gallon" splits
	// into "milk" and "1 gallon" on comma-separated lists)
	"gallon":  true,
	"gallons": true,
	"liter":   true,
	"liters":  true,
	"oz":      true,
	"ounce":   true,
	"ounces":  true,
	"lb":      true,
	"lbs":     true,
	"pound":   true,
	"pounds":  true,
	"quart":   true,
	"quarts":  true,
	"pint":    true,
	"pints":   true,
	"gram":    true,
	"grams":   true,
	"kg":      true,
	"ml":      true,

	// Packaging left bare the same way
	"pack":    true,
	"loaf":    true,
	"loaves":  true,
	"bottle":  true,
	"bottles": true,
	"carton":  true,
	"cartons": true,
	"bag":     true,
	"bags":    true,
	"box":     true,
	"boxes":   true,
	"bunch":   true,
	"bunches": true,
	"can":     true,
	"cans":    true,
	"jar":     true,
	"jars":    true,

	// List chatter
	"buy":    true,
	"get":    true,
	"grab":   true,
	"need":   true,
	"please": true,
}

// NewListParser creates a new list parser
func NewListParser(enableDebugLogging bool) *ListParser {
	return &ListParser{
		enableDebugLogging: enableDebugLogging,
	}
}

// NormalizeItemName cleans one shopping-list entry for store search.
// Removes counts, sizes, pack phrases and filler words, then normalizes
// whitespace and case.
func (p *ListParser) NormalizeItemName(raw string) string {
	if raw == "" {
		return ""
	}

	original := raw

	// Step 1: Lowercase so all later matching is case-insensitive
	cleaned := strings.ToLower(strings.TrimSpace(raw))

	// Step 2: Remove a leading count ("2 x eggs", "3 bananas")
	cleaned = leadingCountPattern.ReplaceAllString(cleaned, "")

	// Step 3: Remove size/quantity suffixes ("1 gallon", "12 oz")
	cleaned = itemQuantityPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove pack/count phrases ("pack of 6", "2 loaves")
	cleaned = itemPackPattern.ReplaceAllString(cleaned, " ")

	// Step 5: Remove filler words
	cleaned = p.removeNoiseWords(cleaned)

	// Step 6: Clean up punctuation that's now orphaned
	cleaned = orphanPunctPattern.ReplaceAllString(cleaned, " ")
	cleaned = trailingPunctPattern.ReplaceAllString(cleaned, "")
	cleaned = leadingPunctPattern.ReplaceAllString(cleaned, "")

	// Step 7: Normalize whitespace
	cleaned = collapseSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if p.enableDebugLogging {
		log.Printf("[PARSE] Input: %q -> Output: %q", original, cleaned)
	}

	return cleaned
}

// ParseList splits a free-form list (newline, comma or semicolon separated)
// into normalized item names, dropping empties and duplicates while keeping
// first-occurrence order.
func (p *ListParser) ParseList(raw string) []string {
	entries := listSplitPattern.Split(raw, -1)

	seen := make(map[string]bool, len(entries))
	items := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := p.NormalizeItemName(entry)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		items = append(items, name)
	}
	return items
}

// removeNoiseWords drops filler words, keeping everything else in order
func (p *ListParser) removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))

	for _, word := range words {
		cleanWord := strings.Trim(word, ",.!?;:-'\"")
		if !itemNoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}
