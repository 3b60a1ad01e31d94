package remedy

import (
	"testing"

	"github.com/Shahidul-Khan2004/EpiTrace-Backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAnalysis(t *testing.T) {
	output := "cloning repo\nrunning checks\n:::FINAL_ANALYSIS:::\nThe deploy at 14:02 broke the health endpoint.\nRoll back to v1.4.2.\n"

	analysis, err := ExtractAnalysis(output)
	require.NoError(t, err)
	assert.Equal(t, "The deploy at 14:02 broke the health endpoint.\nRoll back to v1.4.2.", analysis)
}

func TestExtractAnalysisMissingMarkerFails(t *testing.T) {
	_, err := ExtractAnalysis("everything looked fine\nexit 0\n")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.RemediationFailed))
}

func TestExtractAnalysisEmptyAfterMarkerFails(t *testing.T) {
	_, err := ExtractAnalysis("logs\n:::FINAL_ANALYSIS:::\n   \n")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.RemediationFailed))
}

func TestExtractCommitLink(t *testing.T) {
	output := "pushing\n:::COMMIT_LINK:::\nhttps://github.com/org/repo/commit/abc123\n"

	link, marker, err := ExtractLink(output)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/org/repo/commit/abc123", link)
	assert.Equal(t, "COMMIT_LINK", marker)
}

func TestExtractPRLink(t *testing.T) {
	output := "done\n:::PR_LINK:::\nsome note\nhttps://github.com/org/repo/pull/42\n"

	link, marker, err := ExtractLink(output)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/org/repo/pull/42", link)
	assert.Equal(t, "PR_LINK", marker)
}

func TestExtractLinkSameLineAsMarker(t *testing.T) {
	link, _, err := ExtractLink("logs\n:::COMMIT_LINK:::https://github.com/org/repo/commit/def456\n")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/org/repo/commit/def456", link)
}

func TestExtractLinkNoMarkerFails(t *testing.T) {
	_, _, err := ExtractLink("https://github.com/org/repo/commit/abc123\n")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.RemediationFailed))
}

func TestExtractLinkMarkerWithoutURLFails(t *testing.T) {
	_, _, err := ExtractLink("logs\n:::COMMIT_LINK:::\nnothing useful here\n")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.RemediationFailed))
}
