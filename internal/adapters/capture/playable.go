package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/internal/domain/session"
	"github.com/okian/rehearse/pkg/logger"
)

// filePlayable is a playable handle backed by a temp file. Release removes
// the file; it is safe to call more than once.
type filePlayable struct {
	path string
	once sync.Once
	log  logger.Logger
}

// Path returns the location of the playable audio file.
func (p *filePlayable) Path() string { return p.path }

func (p *filePlayable) Release() {
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			p.log.Warn(context.Background(), "playable cleanup failed",
				logger.String("path", p.path), logger.Error(err))
		}
	})
}

// NewPlayableFactory returns a factory that persists assembled audio to a
// temp file per recording. Empty recordings and write failures yield no
// handle, which the recording slot treats as audio-less.
func NewPlayableFactory(log logger.Logger) session.PlayableFactory {
	if log == nil {
		log = logger.Get().Named("capture")
	}
	return func(data []byte, _ string) model.Playable {
		if len(data) == 0 {
			return nil
		}
		path := filepath.Join(os.TempDir(), "rehearse-"+uuid.NewString()+".webm")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			log.Warn(context.Background(), "playable write failed",
				logger.String("path", path), logger.Error(err))
			return nil
		}
		return &filePlayable{path: path, log: log}
	}
}
