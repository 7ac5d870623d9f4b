package data

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Constants
const (
	// MinConfidence is the default minimum confidence for a name match
	MinConfidence = 0.6

	// DefaultCandidateLimit is the default number of candidates to return
	DefaultCandidateLimit = 5

	// MaxQueryLength truncates extremely long queries
	MaxQueryLength = 200

	// phoneticFloor is the confidence a sound-alike match guarantees
	phoneticFloor = 0.85
)

// NameMatch is one ranked result of a fuzzy region-name lookup
type NameMatch struct {
	Region     *Region `json:"region"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Distance   int     `json:"distance"`   // Levenshtein distance
	MatchType  string  `json:"match_type"` // "exact", "fuzzy", "phonetic", "prefix"
}

// nameEntry is a region name prepared for matching
type nameEntry struct {
	region     *Region
	normalized string
	phonetic   string
	keywords   []string
}

// nameMatcher ranks regions by name similarity. It is rebuilt with the index
// and is read-only afterwards.
type nameMatcher struct {
	entries    []nameEntry
	exactIndex map[string][]int // normalized name -> entry indices
}

func newNameMatcher(regions []*Region) *nameMatcher {
	m := &nameMatcher{exactIndex: make(map[string][]int)}
	for _, r := range regions {
		if r.Name == "" {
			continue
		}
		e := nameEntry{
			region:     r,
			normalized: Normalize(r.Name),
			phonetic:   PhoneticEncode(r.Name),
			keywords:   ExtractKeywords(r.Name),
		}
		m.exactIndex[e.normalized] = append(m.exactIndex[e.normalized], len(m.entries))
		m.entries = append(m.entries, e)
	}
	return m
}

// truncateQuery cuts query to MaxQueryLength runes.
func truncateQuery(query string) string {
	if r := []rune(query); len(r) > MaxQueryLength {
		return string(r[:MaxQueryLength])
	}
	return query
}

func (m *nameMatcher) match(query string, limit int, minConfidence float64) []NameMatch {
	query = truncateQuery(query)
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	normalized := Normalize(query)

	if idx, ok := m.exactIndex[normalized]; ok {
		out := make([]NameMatch, 0, len(idx))
		for _, i := range idx {
			out = append(out, NameMatch{Region: m.entries[i].region, Confidence: 1, MatchType: "exact"})
		}
		sortMatches(out)
		return out[:min(len(out), limit)]
	}

	phonetic := PhoneticEncode(query)
	keywords := ExtractKeywords(query)

	var out []NameMatch
	for _, e := range m.entries {
		distance := fuzzy.LevenshteinDistance(normalized, e.normalized)
		maxLen := max(len(normalized), len(e.normalized))
		if maxLen == 0 {
			continue
		}
		confidence := 1 - float64(distance)/float64(maxLen)
		matchType := "fuzzy"

		// "san" finds "San Francisco"
		if normalized != "" && strings.HasPrefix(e.normalized, normalized) {
			if prefix := 0.5 + 0.5*float64(len(normalized))/float64(len(e.normalized)); prefix > confidence {
				confidence, matchType = prefix, "prefix"
			}
		}
		if phonetic != "" && phonetic == e.phonetic && confidence < phoneticFloor {
			confidence, matchType = phoneticFloor, "phonetic"
		}
		if len(keywords) > 0 {
			matched := 0
			for _, kw := range keywords {
				for _, ekw := range e.keywords {
					if kw == ekw || strings.Contains(ekw, kw) {
						matched++
						break
					}
				}
			}
			confidence = math.Min(confidence+float64(matched)/float64(len(keywords))*0.1, 1)
		}

		if confidence >= minConfidence {
			out = append(out, NameMatch{Region: e.region, Confidence: confidence, Distance: distance, MatchType: matchType})
		}
	}

	sortMatches(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// sortMatches orders by confidence descending, then region ID
func sortMatches(ms []NameMatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Confidence != ms[j].Confidence {
			return ms[i].Confidence > ms[j].Confidence
		}
		return ms[i].Region.ID < ms[j].Region.ID
	})
}

// Common abbreviations in place names
var abbreviations = map[string]string{
	"st":   "saint",
	"ste":  "sainte",
	"mt":   "mount",
	"mtn":  "mountain",
	"ft":   "fort",
	"pt":   "point",
	"is":   "island",
	"isl":  "island",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
	"ne":   "northeast",
	"nw":   "northwest",
	"se":   "southeast",
	"sw":   "southwest",
	"co":   "county",
	"dist": "district",
	"prov": "province",
	"reg":  "region",
	"terr": "territory",
	"natl": "national",
	"pk":   "park",
}

// Normalize prepares a name for comparison: lowercase, punctuation removed,
// whitespace collapsed and common abbreviations expanded.
func Normalize(s string) string {
	var result strings.Builder
	lastWasSpace := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			lastWasSpace = false
		} else if !lastWasSpace {
			result.WriteRune(' ')
			lastWasSpace = true
		}
	}

	words := strings.Fields(result.String())
	for i, w := range words {
		if expanded, ok := abbreviations[w]; ok {
			words[i] = expanded
		}
	}
	return strings.Join(words, " ")
}

// stopwords are ignored when extracting keywords
var stopwords = map[string]bool{
	"the": true, "of": true, "and": true, "de": true, "la": true,
	"county": true, "district": true, "province": true, "region": true,
}

// ExtractKeywords extracts significant words from a name
func ExtractKeywords(name string) []string {
	words := strings.Fields(Normalize(name))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < 4 || stopwords[w] {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// phoneticCodes groups consonants that sound alike; vowels and h, w, y are
// dropped after the first letter.
var phoneticCodes = map[rune]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// PhoneticEncode creates a Soundex-like code for sound-alike matching
func PhoneticEncode(s string) string {
	s = strings.ReplaceAll(Normalize(s), " ", "")
	if s == "" {
		return ""
	}

	var result strings.Builder
	var last byte
	for i, r := range s {
		code, ok := phoneticCodes[r]
		if i == 0 {
			result.WriteRune(r)
			last = code
			continue
		}
		if !ok {
			last = 0
			continue
		}
		if code != last {
			result.WriteByte(code)
			last = code
		}
		if result.Len() >= 6 {
			break
		}
	}

	for result.Len() < 4 {
		result.WriteByte('0')
	}
	return result.String()
}
