package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHidingRules(t *testing.T) {
	tests := []struct {
		name string
		css  string
		want int
	}{
		{"display none", `.a{display:none}`, 1},
		{"visibility hidden", `.a{color:red;visibility:hidden}`, 1},
		{"important", `.a{display: none !important;}`, 1},
		{"group", `.a, #b span{display:none}`, 1},
		{"shown", `.a{display:block}.b{visibility:visible}`, 0},
		{"media", `@media print{.a{display:none}} .b{display:none}`, 1},
		{"import", `@import url(x.css); .a{display:none}`, 1},
		{"comment", `/* .a{display:none} */ .b{opacity:0}`, 0},
		{"bad selector", `.a[{display:none}`, 0},
		{"unclosed", `.a{display:none`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, hidingRules(tt.css), tt.want)
		})
	}
}
