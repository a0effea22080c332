package telegram

// MaxSegmentLen is the per-message length the sender stays under, a safe
// margin below Telegram's 4096 limit.
const MaxSegmentLen = 4000

// Split partitions text into segments of at most maxLen, cutting at raw
// length offsets. Concatenating the result reproduces text exactly; empty
// input yields a single empty segment.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}
	segs := make([]string, 0, (len(text)+maxLen-1)/maxLen)
	for len(text) > maxLen {
		segs = append(segs, text[:maxLen])
		text = text[maxLen:]
	}
	return append(segs, text)
}
