package messaging

import (
	"encoding/json"

	"github.com/nfrund/properly/internal/domain"
)

// byteCounter discards what is written to it and keeps the total length.
type byteCounter int

func (c *byteCounter) Write(p []byte) (int, error) {
	*c += byteCounter(len(p))
	return len(p), nil
}

// submissionSize is the length of the JSON encoding of sub, the measure the
// size ceiling applies to. Attachment bytes count as base64. HTML characters
// are not escaped, so "<" counts as one byte and not six.
func submissionSize(sub *domain.MessageSubmission) (int, error) {
	var n byteCounter
	enc := json.NewEncoder(&n)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sub); err != nil {
		return 0, err
	}
	// Encode terminates the value with a newline.
	return int(n) - 1, nil
}
