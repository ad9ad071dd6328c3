package entropy

import (
	"math"
	"strings"
)

// Shannon returns bits per rune of data.
func Shannon(data string) float64 {
	if data == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range data {
		counts[r]++
		total++
	}
	var result float64
	for _, count := range counts {
		freq := float64(count) / float64(total)
		result -= freq * math.Log2(freq)
	}
	return result
}

// MaxWord returns the highest Shannon entropy among whitespace separated words.
func MaxWord(line string) float64 {
	var max float64
	for _, word := range strings.Fields(line) {
		if e := Shannon(word); e > max {
			max = e
		}
	}
	return max
}
