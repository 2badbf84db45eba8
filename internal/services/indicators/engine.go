package indicators

import (
	"fmt"
	"math"

	"ConsensusBot/internal/domain/models"
)

const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerK      = 2.0
	ATRPeriod       = 14
	VolumePeriod    = 20

	// MaxCloses bounds the close tail copied into a snapshot.
	MaxCloses = 120
)

// Compute builds the indicator snapshot for one symbol from its latest sample and bar history.
// It is pure: the same inputs always produce the same snapshot.
func Compute(symbol string, sample models.Sample, history []models.Candle) (models.IndicatorSnapshot, error) {
	if err := validateSample(sample); err != nil {
		return models.IndicatorSnapshot{}, &models.IndicatorError{Symbol: symbol, Err: err}
	}

	bars := usableBars(history)
	closes := make([]float64, 0, len(bars)+1)
	for _, b := range bars {
		closes = append(closes, b.Close)
	}
	if len(bars) == 0 || sample.Timestamp.After(bars[len(bars)-1].Bucket) {
		closes = append(closes, sample.Price)
	}

	macd := computeMACD(closes)
	mid, std := MeanStd(closes, BollingerPeriod)

	tail := closes
	if len(tail) > MaxCloses {
		tail = tail[len(tail)-MaxCloses:]
	}

	return models.IndicatorSnapshot{
		Symbol:    symbol,
		Price:     sample.Price,
		Volume:    sample.Volume,
		Timestamp: sample.Timestamp,
		RSI:       RSI(closes, RSIPeriod),
		MACD:      macd,
		EMA20:     EMA(closes, 20),
		EMA50:     EMA(closes, 50),
		EMA200:    EMA(closes, 200),
		Bollinger: models.Bollinger{
			Upper:  mid + BollingerK*std,
			Middle: mid,
			Lower:  mid - BollingerK*std,
		},
		ATR:       computeATR(bars, ATRPeriod),
		VolumeSMA: volumeSMA(bars, sample.Volume, VolumePeriod),
		Closes:    append([]float64(nil), tail...),
		Bars:      len(bars),
	}, nil
}

func validateSample(s models.Sample) error {
	if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) || s.Price <= 0 {
		return fmt.Errorf("%w: price %v", models.ErrInvalidSample, s.Price)
	}
	if math.IsNaN(s.Volume) || math.IsInf(s.Volume, 0) || s.Volume < 0 {
		return fmt.Errorf("%w: volume %v", models.ErrInvalidSample, s.Volume)
	}
	return nil
}

// usableBars drops bars whose OHLC cannot be used in arithmetic.
func usableBars(history []models.Candle) []models.Candle {
	out := make([]models.Candle, 0, len(history))
	for _, c := range history {
		if c.Close <= 0 || math.IsNaN(c.Close) || math.IsInf(c.Close, 0) {
			continue
		}
		if math.IsNaN(c.High) || math.IsNaN(c.Low) || math.IsNaN(c.Volume) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func computeMACD(closes []float64) models.MACD {
	if len(closes) == 0 {
		return models.MACD{}
	}
	fast := EMASeries(closes, MACDFast)
	slow := EMASeries(closes, MACDSlow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := EMASeries(line, MACDSignal)
	last := len(line) - 1
	return models.MACD{
		Value:     line[last],
		Signal:    signal[last],
		Histogram: line[last] - signal[last],
	}
}

// computeATR is Wilder's average true range over at most p bars; no bars gives 0.
func computeATR(bars []models.Candle, p int) float64 {
	if len(bars) == 0 {
		return 0
	}
	tr := make([]float64, len(bars))
	for i, b := range bars {
		prev := 0.0
		if i > 0 {
			prev = bars[i-1].Close
		}
		tr[i] = TrueRange(b.High, b.Low, prev)
	}
	n := p
	if n > len(tr) {
		n = len(tr)
	}
	atr := 0.0
	for _, v := range tr[:n] {
		atr += v
	}
	atr /= float64(n)
	for _, v := range tr[n:] {
		atr = (atr*float64(n-1) + v) / float64(n)
	}
	return atr
}

func volumeSMA(bars []models.Candle, sampleVolume float64, p int) float64 {
	if len(bars) == 0 {
		return sampleVolume
	}
	if p > len(bars) {
		p = len(bars)
	}
	sum := 0.0
	for _, b := range bars[len(bars)-p:] {
		sum += b.Volume
	}
	return sum / float64(p)
}
