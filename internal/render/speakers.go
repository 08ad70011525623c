package render

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
)

var speakerID = regexp.MustCompile(`(?i)^speaker[_ ]?0*(\d+)$`)

// SpeakerMap maps normalised speaker labels to display names.
type SpeakerMap map[string]string

// NormalizeSpeaker turns engine labels such as SPEAKER_00 into "Speaker 0".
// Labels that do not look like that are returned trimmed.
func NormalizeSpeaker(s string) string {
	s = strings.TrimSpace(s)
	if m := speakerID.FindStringSubmatch(s); m != nil {
		return "Speaker " + m[1]
	}
	return s
}

// Label returns the display name for a raw engine label.
func (m SpeakerMap) Label(raw string) string {
	label := NormalizeSpeaker(raw)
	if name, ok := m[label]; ok && name != "" {
		return name
	}
	return label
}

// LoadSpeakerMap reads a JSON object of label to name. An empty path yields
// an empty map.
func LoadSpeakerMap(path string) (SpeakerMap, error) {
	if path == "" {
		return SpeakerMap{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configf("read speaker map: %v", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Configf("speaker map %s is not a JSON object of strings: %v", path, err)
	}
	m := make(SpeakerMap, len(raw))
	for k, v := range raw {
		m[NormalizeSpeaker(k)] = strings.TrimSpace(v)
	}
	return m, nil
}

// Save writes the map as indented JSON.
func (m SpeakerMap) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write speaker map: %w", err)
	}
	return nil
}
