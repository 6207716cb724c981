package api

// MoveProgress is reported before each item of a move batch and once
// more when the batch ends. MovedBytes counts the items moved so far.
type MoveProgress struct {
	Folder     string
	Current    int
	Total      int
	MovedBytes int64
}

func (s MoveProgress) Done() bool {
	return s.Current >= s.Total
}

type ProgressReporter interface {
	Update(progress MoveProgress)
}

// SenderProgressReporter publishes the progress on ProcessStatusUpdated.
type SenderProgressReporter struct {
	sender Sender
}

func NewSenderProgressReporter(sender Sender) *SenderProgressReporter {
	return &SenderProgressReporter{
		sender: sender,
	}
}

func (s *SenderProgressReporter) Update(progress MoveProgress) {
	s.sender.SendCommandToTopic(ProcessStatusUpdated, &UpdateProgressCommand{
		Name:       "Moving images to " + progress.Folder,
		Current:    progress.Current,
		Total:      progress.Total,
		MovedBytes: progress.MovedBytes,
		CanCancel:  !progress.Done(),
	})
}
