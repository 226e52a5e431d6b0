package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBatchRun(t *testing.T) {
	run := NewBatchRun(RunParams{InputPath: "/in", OutputDir: "/out", Quality: "720p"})

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunRunning, run.Status)
	assert.False(t, run.IsTerminal())
	assert.Nil(t, run.FinishedAt)
}

func TestBatchRun_Finish(t *testing.T) {
	run := NewBatchRun(RunParams{InputPath: "/in", OutputDir: "/out", Quality: "highest"})
	summary := RunSummary{Total: 3, Succeeded: 1, Failed: 1, Skipped: 1}

	run.Finish(RunCompleted, summary)

	assert.True(t, run.IsTerminal())
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, summary, run.Summary())
}

func TestSummarize(t *testing.T) {
	doc := ClassifyDocument("/in/links.txt")
	link := ExtractedLink{URL: "https://youtube.com/watch?v=a", Source: doc}
	outcomes := []DownloadOutcome{
		NewSuccessOutcome(link, "A", "720p", "/out/A.mp4", 10),
		NewFailedOutcome(doc, link.URL, fmt.Errorf("%w: status 403", ErrTransport)),
		NewSkippedOutcome(ClassifyDocument("/in/x.docx"), "Unsupported file format: .docx"),
		NewSuccessOutcome(link, "B", "720p", "/out/B.mp4", 20),
	}

	summary := Summarize(outcomes)

	assert.Equal(t, RunSummary{Total: 4, Succeeded: 2, Failed: 1, Skipped: 1}, summary)
}

func TestNewFailedOutcome(t *testing.T) {
	doc := ClassifyDocument("/in/links.csv")
	outcome := NewFailedOutcome(doc, "", fmt.Errorf("%w: bad row", ErrTableParse))

	assert.Equal(t, OutcomeFailed, outcome.Status)
	assert.Equal(t, "/in/links.csv", outcome.DocumentPath)
	assert.Empty(t, outcome.Link)
	assert.Equal(t, "table_parse", outcome.ErrorKind)
	assert.Contains(t, outcome.Reason, "bad row")
	assert.False(t, outcome.IsSuccess())
}

func TestValidateOutcomeStatus(t *testing.T) {
	assert.True(t, ValidateOutcomeStatus(OutcomeSuccess))
	assert.True(t, ValidateOutcomeStatus(OutcomeSkipped))
	assert.False(t, ValidateOutcomeStatus("queued"))
}
