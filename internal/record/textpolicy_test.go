package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEnglish(t *testing.T) {
	assert.True(t, IsEnglish("A Survey of Deep Learning Methods for Computer Vision"))
	assert.False(t, IsEnglish("深度学习在计算机视觉中的应用综述"))
	assert.False(t, IsEnglish("Обзор методов глубокого обучения"))
	assert.True(t, IsEnglish(""))
}

func TestIsEnglish_ShortTextThreshold(t *testing.T) {
	assert.True(t, IsEnglish("Go"))
	assert.False(t, IsEnglish("日本語"))
}

func TestIsEnglish_MixedRatio(t *testing.T) {
	// Mostly digits/punctuation, low ASCII-letter ratio, long enough to
	// hit the 0.70 threshold branch.
	assert.False(t, IsEnglish("1234567890 1234567890 1234567890 a"))
}
