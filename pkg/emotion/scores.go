package emotion

// Scores maps each emotion to a confidence in [0,1].
type Scores map[Emotion]float64

// Dominant returns the highest scoring emotion.
// Ties are broken by the fixed order of All. ok is false when no
// recognised emotion has a score.
func (s Scores) Dominant() (e Emotion, confidence float64, ok bool) {
	best := -1.0
	for _, cand := range all {
		v, present := s[cand]
		if !present {
			continue
		}
		// Strictly greater keeps the earlier emotion on a tie
		if v > best {
			best = v
			e = cand
			ok = true
		}
	}
	if !ok {
		return "", 0, false
	}
	return e, best, true
}

// Normalize scales the scores so they sum to 1. Scores that sum to zero
// are returned unchanged.
func (s Scores) Normalize() Scores {
	var sum float64
	for _, v := range s {
		sum += v
	}
	if sum == 0 {
		return s
	}
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v / sum
	}
	return out
}
