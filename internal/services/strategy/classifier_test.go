package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifier(t *testing.T) {
	pole := make([]float64, 0, 30)
	for i := 0; i <= 20; i++ {
		pole = append(pole, 100+0.5*float64(i))
	}
	flag := append(pole, 109.5, 109, 109.2, 108.8, 109, 108.7, 108.9, 108.6, 108.8)

	cases := []struct {
		name    string
		closes  []float64
		want    string
		bullish bool
	}{
		{"bull flag", flag, PatternBullFlag, true},
		{
			"double bottom",
			[]float64{110, 108, 106, 104, 102, 100, 101, 103, 105, 106, 105, 103, 101.5, 100.5, 102, 104, 106.5, 108},
			PatternDoubleBottom, true,
		},
		{
			"triple top",
			[]float64{100, 104, 108, 110, 107, 105, 107, 109.8, 107, 105.5, 107, 110.2, 107, 104, 102},
			PatternTripleTop, false,
		},
		{
			"head and shoulders",
			[]float64{100, 103, 106, 103, 101, 104, 110, 104, 101, 103, 106.5, 103, 100, 98},
			PatternHeadShoulders, false,
		},
	}

	c := NewRuleClassifier()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := c.Classify(context.Background(), "AAPL", tc.closes)
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.Equal(t, tc.want, m.Name)
			assert.Equal(t, tc.bullish, m.Bullish)
			assert.Greater(t, m.Probability, MinPatternProbability)
			assert.LessOrEqual(t, m.Probability, 1.0)
		})
	}
}

func TestRuleClassifierNoPattern(t *testing.T) {
	flat := make([]float64, 50)
	for i := range flat {
		flat[i] = 100
	}
	m, err := NewRuleClassifier().Classify(context.Background(), "AAPL", flat)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = NewRuleClassifier().Classify(context.Background(), "AAPL", []float64{1, 2})
	require.NoError(t, err)
	assert.Nil(t, m)
}
