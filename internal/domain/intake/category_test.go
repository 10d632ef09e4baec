package intake

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    CategoryID
		wantOK  bool
	}{
		{name: "glyphosate", payload: `{"MatterTypes":{"Glyphosate Matter":{"questions":[]}}}`, want: CategoryGlyphosate, wantOK: true},
		{name: "asbestos", payload: "Asbestos NonMidwest Matter", want: CategoryAsbestosNonMidwest, wantOK: true},
		{name: "paraquat inside free text", payload: "which court? Paraquat Matter, please", want: CategoryParaquat, wantOK: true},
		{name: "talc", payload: `["Talc Matter: who is the plaintiff?"]`, want: CategoryTalc, wantOK: true},
		{name: "no keyword", payload: "no matching keyword here", wantOK: false},
		{name: "empty payload", payload: "", wantOK: false},
		{name: "case sensitive", payload: "glyphosate matter", wantOK: false},
		{name: "partial keyword", payload: "Asbestos Matter", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Classify(tt.payload)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUsesTableOrderNotPayloadOrder(t *testing.T) {
	got, ok := Classify("Talc Matter first, then Glyphosate Matter")
	require.True(t, ok)
	require.Equal(t, CategoryGlyphosate, got)

	got, ok = Classify("Talc Matter and Paraquat Matter")
	require.True(t, ok)
	require.Equal(t, CategoryParaquat, got)
}

func TestCategoriesReturnsCopy(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 4)
	require.Equal(t, "Glyphosate Matter", cats[0].Keyword)

	cats[0].Category = "tampered"
	got, ok := Classify("Glyphosate Matter")
	require.True(t, ok)
	require.Equal(t, CategoryGlyphosate, got)
}

func TestCategoryValid(t *testing.T) {
	require.True(t, CategoryTalc.Valid())
	require.False(t, CategoryID("unknown").Valid())
	require.False(t, CategoryID("").Valid())
}
