package pipeline

import (
	"time"

	"github.com/ppiankov/satyamitra/internal/model"
)

// Observer receives run telemetry. Implementations must be safe for concurrent use.
type Observer interface {
	NodeDone(node string, elapsed time.Duration, err error)
	RunDone(inputType model.InputType, verdict model.Verdict)
	VerdictFallback()
	CritiqueRetry()
}

type nopObserver struct{}

func (nopObserver) NodeDone(string, time.Duration, error) {}
func (nopObserver) RunDone(model.InputType, model.Verdict) {}
func (nopObserver) VerdictFallback() {}
func (nopObserver) CritiqueRetry() {}
