package remedy

import (
	"regexp"
	"strings"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
)

const (
	analysisMarker = ":::FINAL_ANALYSIS:::"
)

var (
	linkMarkerRe = regexp.MustCompile(`:::(COMMIT_LINK|PR_LINK):::`)
	urlLineRe    = regexp.MustCompile(`^https?://`)
)

// ExtractAnalysis pulls the diagnostic result out of the subprocess output:
// everything after the analysis marker, trimmed. A zero exit code without
// the marker is still a failure; the agent must produce a usable result.
func ExtractAnalysis(output string) (string, error) {
	const op string = "remedy.extract_analysis"

	_, rest, found := strings.Cut(output, analysisMarker)
	if !found {
		return "", &apperror.Error{
			Kind:    apperror.RemediationFailed,
			Op:      op,
			Message: "no result found in output",
		}
	}

	analysis := strings.TrimSpace(rest)
	if analysis == "" {
		return "", &apperror.Error{
			Kind:    apperror.RemediationFailed,
			Op:      op,
			Message: "no result found in output",
		}
	}
	return analysis, nil
}

// ExtractLink finds the commit/PR marker and returns the first following
// line that looks like a URL, plus which marker matched ("COMMIT_LINK" or
// "PR_LINK").
func ExtractLink(output string) (string, string, error) {
	const op string = "remedy.extract_link"

	loc := linkMarkerRe.FindStringSubmatchIndex(output)
	if loc == nil {
		return "", "", &apperror.Error{
			Kind:    apperror.RemediationFailed,
			Op:      op,
			Message: "no result found in output",
		}
	}
	marker := output[loc[2]:loc[3]]

	rest := output[loc[1]:]
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		if urlLineRe.MatchString(line) {
			return line, marker, nil
		}
	}

	return "", "", &apperror.Error{
		Kind:    apperror.RemediationFailed,
		Op:      op,
		Message: "no result found in output",
	}
}
