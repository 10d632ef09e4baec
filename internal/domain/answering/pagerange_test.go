package answering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		pages     int
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{name: "empty selects all", raw: "", pages: 4, wantStart: 1, wantEnd: 4},
		{name: "single page", raw: "2", pages: 4, wantStart: 2, wantEnd: 2},
		{name: "range", raw: "1-3", pages: 4, wantStart: 1, wantEnd: 3},
		{name: "spaces", raw: " 2 - 3 ", pages: 4, wantStart: 2, wantEnd: 3},
		{name: "end clamped", raw: "3-10", pages: 4, wantStart: 3, wantEnd: 4},
		{name: "start beyond document", raw: "5", pages: 4, wantErr: true},
		{name: "zero page", raw: "0", pages: 4, wantErr: true},
		{name: "reversed", raw: "3-1", pages: 4, wantErr: true},
		{name: "garbage", raw: "first", pages: 4, wantErr: true},
		{name: "open range", raw: "2-", pages: 4, wantErr: true},
		{name: "no pages", raw: "1", pages: 0, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start, end, err := ParsePageRange(tt.raw, tt.pages)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantStart, start)
			require.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestSplitPages(t *testing.T) {
	require.Equal(t, []string{"one", "two", "three"}, splitPages("one\ftwo\fthree"))
	require.Equal(t, []string{"single"}, splitPages("single"))
}
