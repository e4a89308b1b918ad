package pipeline

// Stage names carried by stage errors and per-stage metadata.
const (
	StageTranscribe = "transcribe"
	StageDiarize    = "diarize"
	StageNormalize  = "normalize"
	StageLocalize   = "localize"
	StageSummarize  = "summarize"
)

// TranscriptionError reports a failed or empty transcription call. The run
// stops at this stage; no completion call executes after it.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription failed: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// CompletionError reports a failed or empty completion call at the named
// stage (diarize, localize or summarize).
type CompletionError struct {
	Stage string
	Err   error
}

func (e *CompletionError) Error() string {
	return "completion failed at stage " + e.Stage + ": " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
