package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareTags(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "equal", a: "v1.0.0", b: "v1.0.0", want: 0},
		{name: "numeric not lexical", a: "v10.0", b: "v2.0", want: 1},
		{name: "patch", a: "1.2.3", b: "1.2.10", want: -1},
		{name: "missing component counts as zero", a: "v1.2", b: "v1.2.1", want: -1},
		{name: "release above pre-release", a: "v1.0.0", b: "v1.0.0-rc.1", want: 1},
		{name: "labels lexical", a: "v1.0.0-alpha", b: "v1.0.0-beta", want: -1},
		{name: "prefix first", a: "a-9.0", b: "b-1.0", want: -1},
		{name: "no digits", a: "nightly", b: "stable", want: -1},
		{name: "digits beat bare prefix", a: "v", b: "v1", want: -1},
		{name: "beyond int64", a: "v99999999999999999999", b: "v99999999999999999998", want: 1},
		{name: "equal value different text", a: "v1.0", b: "v1.0.0", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareTags(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareTags(tt.b, tt.a))
		})
	}
}

func TestMaxTag(t *testing.T) {
	tag, ok := MaxTag([]string{"v2.0", "v10.0", "v9.9.9", "v10.0-rc.1"})
	assert.True(t, ok)
	assert.Equal(t, "v10.0", tag)

	_, ok = MaxTag(nil)
	assert.False(t, ok)
}
