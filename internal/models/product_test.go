package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_FixedExtraCosts(t *testing.T) {
	t.Run("SumsOnlyFixedItems", func(t *testing.T) {
		p := Product{ExtraCostsJSON: `[
			{"name": "packaging", "type": "fixed", "value": 12.5},
			{"name": "agency fee", "type": "percent", "value": 3},
			{"name": "labeling", "type": "fixed", "value": 7.5}
		]`}
		assert.Equal(t, 20.0, p.FixedExtraCosts())
	})

	t.Run("EmptyJSON", func(t *testing.T) {
		p := Product{}
		assert.Equal(t, 0.0, p.FixedExtraCosts())
	})

	t.Run("MalformedJSONIsIgnored", func(t *testing.T) {
		p := Product{ExtraCostsJSON: `{"not": "an array"`}
		assert.Equal(t, 0.0, p.FixedExtraCosts())
	})
}

func TestValidStrategyType(t *testing.T) {
	assert.True(t, ValidStrategyType(TypeOutOfStock))
	assert.True(t, ValidStrategyType(TypeTargetMargin))
	assert.False(t, ValidStrategyType("flash_sale"))
	assert.False(t, ValidStrategyType(""))
}
