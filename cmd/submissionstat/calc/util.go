package calc

import "time"

// getMin returns the earliest timestamp. `timestamps` must not be empty.
func getMin(timestamps []time.Time) time.Time {
	min := timestamps[0]
	for _, t := range timestamps[1:] {
		if t.Before(min) {
			min = t
		}
	}

	return min
}

// getMax returns the latest timestamp. `timestamps` must not be empty.
func getMax(timestamps []time.Time) time.Time {
	max := timestamps[0]
	for _, t := range timestamps[1:] {
		if t.After(max) {
			max = t
		}
	}

	return max
}
