package domain

import (
	"fmt"
	"strings"
)

// Category is the ordered 5-level sentiment scale. Its integer value is the
// observation score (0..4).
type Category int

const (
	VeryNegative Category = iota
	Negative
	Neutral
	Positive
	VeryPositive
)

// Sentinels returned only as a dominant category.
const (
	NoData Category = -1
	Mixed  Category = -2
)

// NumCategories is the number of real sentiment buckets.
const NumCategories = 5

const (
	LabelNoData = "No Data"
	LabelMixed  = "Mixed"
)

var sentimentLabels = [NumCategories]string{"Very Negative", "Negative", "Neutral", "Positive", "Very Positive"}

var moodLabels = [NumCategories]string{"Depressed", "Sad", "Neutral", "Happy", "Excited"}

// moodAliases are mood picks without a label of their own on the 5-level scale.
var moodAliases = map[string]Category{"angry": Negative}

// Valid reports whether c is one of the five real buckets.
func (c Category) Valid() bool {
	return c >= VeryNegative && c <= VeryPositive
}

// Score returns the numeric score of a real bucket.
func (c Category) Score() float64 {
	return float64(c)
}

func (c Category) String() string {
	return c.Label(Journal)
}

// Label returns the display label of c for the given feature. Sentinels use the
// same label across features.
func (c Category) Label(f Feature) string {
	switch c {
	case NoData:
		return LabelNoData
	case Mixed:
		return LabelMixed
	}
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	if f == Mood {
		return moodLabels[c]
	}
	return sentimentLabels[c]
}

// ParseCategory accepts a sentiment label ("Very Positive", "veryPositive",
// "very_positive"), a mood label ("happy", "angry") or a score ("0".."4").
func ParseCategory(s string) (Category, error) {
	key := normalizeLabel(s)
	if len(key) == 1 && key[0] >= '0' && key[0] <= '4' {
		return Category(key[0] - '0'), nil
	}
	for i := range NumCategories {
		if key == normalizeLabel(sentimentLabels[i]) || key == normalizeLabel(moodLabels[i]) {
			return Category(i), nil
		}
	}
	if c, ok := moodAliases[key]; ok {
		return c, nil
	}
	return NoData, fmt.Errorf("%w: unknown category %q", ErrInvalidObservation, s)
}

// CategoryFromScore rounds a mean score to its bucket.
func CategoryFromScore(score float64) Category {
	c := Category(roundHalfUp(score))
	switch {
	case c < VeryNegative:
		return VeryNegative
	case c > VeryPositive:
		return VeryPositive
	}
	return c
}

func normalizeLabel(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
