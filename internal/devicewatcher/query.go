package devicewatcher

import "encoding/json"

// system_profiler SPAudioDataType -json output, trimmed to the fields the
// default-output lookup needs.
type profilerReport struct {
	SPAudioDataType []struct {
		Items []profilerItem `json:"_items"`
	} `json:"SPAudioDataType"`
}

type profilerItem struct {
	Name          string `json:"_name"`
	DefaultOutput string `json:"coreaudio_default_audio_output_device"`
}

// parseDefaultOutput finds the device flagged as the default output in a
// system_profiler report. Returns Unknown when no device carries the flag.
func parseDefaultOutput(data []byte) (string, error) {
	var report profilerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return Unknown, err
	}

	for _, group := range report.SPAudioDataType {
		for _, item := range group.Items {
			if item.DefaultOutput == "spaudio_yes" {
				return item.Name, nil
			}
		}
	}
	return Unknown, nil
}
