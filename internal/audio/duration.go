package audio

import (
	"bytes"
	"time"

	"github.com/tcolgate/mp3"
)

// ProbeMP3Duration walks the MP3 frame headers and sums frame durations
// without decoding PCM. Used to report the full container length of a
// sample that analysis truncates.
func ProbeMP3Duration(data []byte) (time.Duration, error) {
	decoder := mp3.NewDecoder(bytes.NewReader(data))

	var duration time.Duration
	skipped := 0

	for {
		frame := mp3.Frame{}
		if err := decoder.Decode(&frame, &skipped); err != nil {
			// End of stream
			break
		}
		duration += frame.Duration()
	}

	return duration, nil
}
