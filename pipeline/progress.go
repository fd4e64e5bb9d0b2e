package pipeline

import (
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

type progress struct {
	bar *pterm.ProgressbarPrinter
}

func startProgress(enabled bool, total int, logger *zap.SugaredLogger) *progress {
	if !enabled || total == 0 {
		return &progress{}
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Rendering frames").
		WithRemoveWhenDone(false).
		Start()
	if err != nil {
		logger.Debugw("progress bar unavailable", "error", err)
		return &progress{}
	}
	return &progress{bar: bar}
}

func (p *progress) increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p *progress) stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
