package chunk

// Split divides text into overlapping windows of at most size bytes.
// Consecutive chunks overlap by 10% of size (the step is 0.9*size), the
// windows cover the input exactly once start to finish, and the final chunk
// is truncated to whatever remains. Split is a pure function of its input:
// chunking is deterministic and restartable.
func Split(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}

	step := size * 9 / 10
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if start+size >= len(text) {
			break
		}
	}
	return chunks
}

// Step returns the advance between consecutive chunk starts for a window
// size, exposed so callers can reason about coverage (count = ceil(len/step)).
func Step(size int) int {
	step := size * 9 / 10
	if step < 1 {
		step = 1
	}
	return step
}
