package release

import "strings"

var reissueMarkers = []string{
	"reissue",
	"originally released",
	"first time on vinyl",
	"re-release",
	"anniversary",
	"expanded edition",
}

var newReleaseMarkers = []string{
	"new album",
	"debut album",
	"brand new",
	"new release",
}

// DetectReissue classifies a release from its short description and more-info text.
// Reissue markers take precedence over new-release markers.
func DetectReissue(description, moreInfo string) ReissueStatus {
	text := strings.ToLower(description + " " + moreInfo)

	for _, marker := range reissueMarkers {
		if strings.Contains(text, marker) {
			return ReissueYes
		}
	}
	for _, marker := range newReleaseMarkers {
		if strings.Contains(text, marker) {
			return ReissueNo
		}
	}
	return ReissueUnknown
}

// ParseReissueStatus maps free-form source values onto a ReissueStatus.
// Anything unrecognised yields ReissueUnknown and false.
func ParseReissueStatus(s string) (ReissueStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return ReissueYes, true
	case "no", "n", "false":
		return ReissueNo, true
	case "unknown":
		return ReissueUnknown, true
	default:
		return ReissueUnknown, false
	}
}
