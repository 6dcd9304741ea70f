package constants

// JobStatus is the canonical status for documents in voice_creation_jobs.
type JobStatus string

// Stable values (store these exact strings).
const (
	JobStatusDiscoveringVideos     JobStatus = "discovering_videos"     // stage 1: creator discovery
	JobStatusProcessingVideos      JobStatus = "processing_videos"      // stage 2: ingestion batches
	JobStatusWaitingTranscriptions JobStatus = "waiting_transcriptions" // stage 3: polling transcripts
	JobStatusGeneratingTemplates   JobStatus = "generating_templates"   // stage 4: LLM template synthesis
	JobStatusCreatingVoice         JobStatus = "creating_voice"         // stage 5: voice assembly
	JobStatusCompleted             JobStatus = "completed"              // terminal success
	JobStatusFailed                JobStatus = "failed"                 // terminal failure
)

var stepNames = map[JobStatus]string{
	JobStatusDiscoveringVideos:     "Discovering videos",
	JobStatusProcessingVideos:      "Processing videos",
	JobStatusWaitingTranscriptions: "Waiting for transcriptions",
	JobStatusGeneratingTemplates:   "Generating templates",
	JobStatusCreatingVoice:         "Creating voice",
	JobStatusCompleted:             "Completed",
	JobStatusFailed:                "Failed",
}

var stepNumbers = map[JobStatus]int{
	JobStatusDiscoveringVideos:     1,
	JobStatusProcessingVideos:      2,
	JobStatusWaitingTranscriptions: 3,
	JobStatusGeneratingTemplates:   4,
	JobStatusCreatingVoice:         5,
	JobStatusCompleted:             5,
}

// Step returns the 1-based pipeline step for the status. Failed keeps
// whatever step the job was on, so it reports 0 here.
func (s JobStatus) Step() int {
	return stepNumbers[s]
}

// StepName is the human readable label shown to callers polling the job.
func (s JobStatus) StepName() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return string(s)
}

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether the linear state machine allows from -> to.
// Every non-terminal state may fail.
func CanTransition(from, to JobStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == JobStatusFailed || from == to {
		return true
	}
	switch from {
	case JobStatusDiscoveringVideos:
		return to == JobStatusProcessingVideos
	case JobStatusProcessingVideos:
		return to == JobStatusWaitingTranscriptions
	case JobStatusWaitingTranscriptions:
		return to == JobStatusGeneratingTemplates
	case JobStatusGeneratingTemplates:
		return to == JobStatusCreatingVoice
	case JobStatusCreatingVoice:
		return to == JobStatusCompleted
	default:
		return false
	}
}

// TranscriptionStatusCompleted is the terminal transcriptionStatus written by the
// transcription service on video records.
const TranscriptionStatusCompleted = "completed"
