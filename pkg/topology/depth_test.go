package topology

import "testing"

func TestMaxDepth(t *testing.T) {
	tests := []struct {
		name     string
		children map[string][]string
		root     string
		want     int
	}{
		{
			name:     "leaf",
			children: map[string][]string{},
			root:     "a",
			want:     0,
		},
		{
			name:     "single child",
			children: map[string][]string{"a": {"b"}},
			root:     "a",
			want:     1,
		},
		{
			name: "uneven branches take the deeper one",
			children: map[string][]string{
				"a": {"b", "c"},
				"c": {"d"},
				"d": {"e"},
			},
			root: "a",
			want: 3,
		},
		{
			name: "depth measured from the queried node",
			children: map[string][]string{
				"a": {"b"},
				"b": {"c"},
			},
			root: "b",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxDepth(tt.root, tt.children); got != tt.want {
				t.Errorf("MaxDepth(%s) = %d, want %d", tt.root, got, tt.want)
			}
		})
	}
}

func TestMaxDepthChain(t *testing.T) {
	// A chain of depth d must report exactly d.
	for d := 0; d <= 12; d++ {
		children := map[string][]string{}
		for i := 0; i < d; i++ {
			children[chainName(i)] = []string{chainName(i + 1)}
		}
		if got := MaxDepth(chainName(0), children); got != d {
			t.Errorf("chain depth %d: MaxDepth = %d", d, got)
		}
	}
}

func chainName(i int) string {
	return "net" + string(rune('a'+i))
}
