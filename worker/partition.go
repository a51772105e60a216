package worker

// SplitLines cuts lines into min(n, len(lines)) contiguous chunks whose sizes
// differ by at most one. It never returns an empty chunk; n <= 0 is treated
// as 1. Chunks alias lines.
func SplitLines(lines []string, n int) [][]string {
	if len(lines) == 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	if n > len(lines) {
		n = len(lines)
	}
	chunks := make([][]string, 0, n)
	size, extra := len(lines)/n, len(lines)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		chunks = append(chunks, lines[start:end:end])
		start = end
	}
	return chunks
}
