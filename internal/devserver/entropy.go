package devserver

import (
	"math"

	"github.com/solveya/console/internal/models"
)

const (
	entropyWindowSize = 256
	entropyWindowStep = 128

	// Sustained near-maximal entropy typically means packed or encrypted
	// content, which is what the real detectors flag most often.
	anomalyEntropyThreshold = 7.2
)

// profileEntropy computes a Shannon entropy profile over the artifact,
// matching the shape the real engine reports.
func profileEntropy(data []byte) *models.EntropyProfile {
	global := shannonEntropy(data)

	window := entropyWindowSize
	step := entropyWindowStep
	if len(data) < window {
		window = max(1, len(data))
		step = window
	}

	var windowed []float64
	for off := 0; off+window <= len(data); off += step {
		windowed = append(windowed, shannonEntropy(data[off:off+window]))
	}
	if len(windowed) == 0 {
		windowed = []float64{global}
	}

	mean := 0.0
	for _, e := range windowed {
		mean += e
	}
	mean /= float64(len(windowed))

	variance := 0.0
	if len(windowed) > 1 {
		for _, e := range windowed {
			variance += (e - mean) * (e - mean)
		}
		variance /= float64(len(windowed) - 1)
	}

	lo, hi := windowed[0], windowed[0]
	for _, e := range windowed[1:] {
		lo = math.Min(lo, e)
		hi = math.Max(hi, e)
	}

	return &models.EntropyProfile{
		GlobalEntropy:           global,
		EntropyRate:             global / 8.0,
		WindowedEntropyMean:     mean,
		WindowedEntropyVariance: variance,
		WindowedEntropyMin:      lo,
		WindowedEntropyMax:      hi,
	}
}

// detectAnomalies applies a simple entropy threshold in place of the engine's
// trained detectors, keeping the result shape identical.
func detectAnomalies(profile *models.EntropyProfile) []models.AnomalyResult {
	score := profile.GlobalEntropy / 8.0
	return []models.AnomalyResult{
		{
			DetectorName: "EntropyThreshold",
			Score:        score,
			IsAnomaly:    profile.GlobalEntropy > anomalyEntropyThreshold,
			Details:      map[string]any{"threshold": anomalyEntropyThreshold},
		},
	}
}

func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
