package session

import "github.com/okian/rehearse/internal/domain/model"

// User-facing notifications. Titles and descriptions are part of the UI
// contract; change them deliberately.
var (
	notifMicDenied = model.Notification{
		Title:       "Microphone access denied",
		Description: "Please allow microphone access to record your answer.",
		Variant:     model.VariantDestructive,
	}
	notifTimesUp = model.Notification{
		Title:       "Time's up",
		Description: "Maximum recording time reached. Your answer has been saved.",
	}
	notifAnswerSaved = model.Notification{
		Title:       "Answer recorded",
		Description: "Your answer has been saved. You can re-record it before moving on.",
	}
	notifRecordFirst = model.Notification{
		Title:       "Record an answer first",
		Description: "Please record an answer before moving to the next question.",
		Variant:     model.VariantDestructive,
	}
	notifUploadFailed = model.Notification{
		Title:       "Upload failed",
		Description: "Your answer could not be uploaded. Try moving on again.",
		Variant:     model.VariantDestructive,
	}
	notifCallEnded = model.Notification{
		Title:       "Call ended",
		Description: "The interview call has ended.",
	}
)
