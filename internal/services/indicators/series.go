package indicators

import "math"

// EMASeries returns the exponential moving average of x, seeded with x[0].
// The output is aligned with the input and has no warmup gaps.
func EMASeries(x []float64, p int) []float64 {
	if p <= 0 || len(x) == 0 {
		return nil
	}
	out := make([]float64, len(x))
	k := 2.0 / float64(p+1)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// EMA returns the last value of EMASeries, or 0 for an empty series.
func EMA(x []float64, p int) float64 {
	s := EMASeries(x, p)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// MeanStd returns mean and population standard deviation of the last p points.
// The window shrinks to len(x) when fewer points are available.
func MeanStd(x []float64, p int) (mean, std float64) {
	if p <= 0 || len(x) == 0 {
		return 0, 0
	}
	if p > len(x) {
		p = len(x)
	}
	var sum, sum2 float64
	for _, v := range x[len(x)-p:] {
		sum += v
		sum2 += v * v
	}
	n := float64(p)
	mean = sum / n
	v := sum2/n - mean*mean
	if v < 0 {
		v = 0
	}
	return mean, math.Sqrt(v)
}

// RSI is Wilder's relative strength index over the last closes.
// With fewer than p changes the average runs over what is available.
func RSI(closes []float64, p int) float64 {
	changes := len(closes) - 1
	if changes < 1 || p <= 0 {
		return 50
	}
	n := p
	if n > changes {
		n = changes
	}

	var gain, loss float64
	for i := 1; i <= n; i++ {
		d := closes[i] - closes[i-1]
		if d >= 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgG := gain / float64(n)
	avgL := loss / float64(n)

	for i := n + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if d >= 0 {
			g = d
		} else {
			l = -d
		}
		avgG = (avgG*float64(n-1) + g) / float64(n)
		avgL = (avgL*float64(n-1) + l) / float64(n)
	}

	if avgL == 0 {
		if avgG == 0 {
			return 50
		}
		return 100
	}
	rs := avgG / avgL
	return 100 - 100/(1+rs)
}

// TrueRange of a bar given the previous close; prevClose <= 0 means no previous bar.
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if prevClose > 0 {
		tr = math.Max(tr, math.Abs(high-prevClose))
		tr = math.Max(tr, math.Abs(low-prevClose))
	}
	return tr
}
