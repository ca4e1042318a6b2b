// Package chunker splits long text into overlapping fixed-size windows
// before synthesis and upload.
package chunker

// DefaultChunkSize is the window size in characters.
const DefaultChunkSize = 3000

// DefaultOverlap is the number of characters shared between adjacent windows.
const DefaultOverlap = 300

// Split cuts text into windows of chunkSize characters where each window
// starts overlap characters before the end of the previous one. The final
// window runs to the end of the input and no overlap step is applied after
// it. Inputs shorter than chunkSize yield a single chunk. Overlap must be
// smaller than chunkSize.
func Split(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	length := len(runes)
	if length == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < length {
		end := start + chunkSize
		if end > length {
			end = length
		}
		chunks = append(chunks, string(runes[start:end]))
		if start+chunkSize < length {
			start = start + chunkSize - overlap
		} else {
			start = length
		}
	}
	return chunks
}
