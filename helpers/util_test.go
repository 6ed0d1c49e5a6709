package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstPathSegment(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
	}{
		{"https://site.example/bong-da/tran-dau-c48a1.html", "bong-da"},
		{"https://site.example//the-thao/a.html", "the-thao"},
		{"https://site.example/", ""},
		{"https://site.example", ""},
		{"://broken", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, FirstPathSegment(tc.url), tc.url)
	}
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "Tin nóng hôm nay", CollapseSpace("  Tin\n\tnóng   hôm nay \n"))
	assert.Equal(t, "", CollapseSpace(" \n "))
}
