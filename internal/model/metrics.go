package model

import "sort"

func accuracy(labels, probs []float64, threshold float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		predicted := 0.0
		if p >= threshold {
			predicted = 1
		}
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

// rocAUC computes the area under the ROC curve via the rank-sum identity.
// Tied scores share their average rank. Degenerate label sets score 0.5.
func rocAUC(labels, probs []float64) float64 {
	positives := 0
	for _, label := range labels {
		if label == 1 {
			positives++
		}
	}
	negatives := len(labels) - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return probs[idx[i]] < probs[idx[j]] })

	ranks := make([]float64, len(probs))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && probs[idx[j]] == probs[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	rankSum := 0.0
	for i, label := range labels {
		if label == 1 {
			rankSum += ranks[i]
		}
	}
	p := float64(positives)
	n := float64(negatives)
	return (rankSum - p*(p+1)/2) / (p * n)
}
