package browser

import (
	"context"
	"sync"

	"github.com/use-agent/sneakerscope/models"
)

// Handle owns one launched session. Release is safe to call any number of
// times; the session is closed exactly once.
type Handle struct {
	session Session

	once sync.Once
	err  error
}

// Acquire launches a session. Any launcher failure is reported as a
// LAUNCH_FAILED ScrapeError unless the launcher already classified it.
func Acquire(ctx context.Context, l Launcher, opts LaunchOptions) (*Handle, error) {
	s, err := l.Launch(ctx, opts)
	if err != nil {
		if models.CodeOf(err) != "" {
			return nil, err
		}
		return nil, models.NewScrapeError(models.ErrCodeLaunch, "failed to launch browser", err)
	}
	return &Handle{session: s}, nil
}

// NewPage opens a page in the owned session.
func (h *Handle) NewPage(ctx context.Context) (Page, error) {
	return h.session.NewPage(ctx)
}

// Release closes the session on the first call and returns that call's
// error on every call.
func (h *Handle) Release() error {
	h.once.Do(func() {
		h.err = h.session.Close()
	})
	return h.err
}
