package intake

import "strings"

// CategoryID identifies the matter type a complaint belongs to.
type CategoryID string

const (
	CategoryGlyphosate         CategoryID = "glyphosate"
	CategoryAsbestosNonMidwest CategoryID = "asbestos-nonmidwest"
	CategoryParaquat           CategoryID = "paraquat"
	CategoryTalc               CategoryID = "talc"
)

// CategoryKeyword binds a payload keyword to its category.
type CategoryKeyword struct {
	Keyword  string     `json:"keyword"`
	Category CategoryID `json:"category"`
}

// categoryTable is consulted in declared order; the first matching keyword wins.
var categoryTable = [...]CategoryKeyword{
	{Keyword: "Glyphosate Matter", Category: CategoryGlyphosate},
	{Keyword: "Asbestos NonMidwest Matter", Category: CategoryAsbestosNonMidwest},
	{Keyword: "Paraquat Matter", Category: CategoryParaquat},
	{Keyword: "Talc Matter", Category: CategoryTalc},
}

// Classify returns the category of the first table keyword found in the raw payload.
// The boolean is false when no keyword matches.
func Classify(rawPayload string) (CategoryID, bool) {
	for _, entry := range categoryTable {
		if strings.Contains(rawPayload, entry.Keyword) {
			return entry.Category, true
		}
	}
	return "", false
}

// Categories returns the keyword table in lookup order.
func Categories() []CategoryKeyword {
	out := make([]CategoryKeyword, len(categoryTable))
	copy(out, categoryTable[:])
	return out
}

// Valid reports whether the id is one of the known categories.
func (c CategoryID) Valid() bool {
	for _, entry := range categoryTable {
		if entry.Category == c {
			return true
		}
	}
	return false
}

func (c CategoryID) String() string {
	return string(c)
}
