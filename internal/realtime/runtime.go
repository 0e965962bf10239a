package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/kindredapp/kindred/internal/actor"
	"github.com/kindredapp/kindred/internal/storage"
	"github.com/kindredapp/kindred/pkg/logger"
	"github.com/kindredapp/kindred/protocol/wire"
)

// widgetSaveTimeout bounds a single widget write.
const widgetSaveTimeout = 10 * time.Second

// WidgetSaver persists received scribbles for the home-screen widget.
type WidgetSaver interface {
	SaveScribblePaths(ctx context.Context, paths []wire.PathSegment, meta storage.ScribbleMeta) error
}

// emitter sends an event on whatever transport is live.
type emitter interface {
	emitRaw(event string, payload any) error
}

// effectRuntime executes reducer effects for a Session.
type effectRuntime struct {
	out    emitter
	widget WidgetSaver

	moods          *observers[MoodUpdate]
	scribbleErrors *observers[ScribbleError]

	mu      sync.Mutex
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newEffectRuntime(out emitter, widget WidgetSaver, moods *observers[MoodUpdate],
	scribbleErrors *observers[ScribbleError]) *effectRuntime {

	ctx, cancel := context.WithCancel(context.Background())
	return &effectRuntime{
		out:            out,
		widget:         widget,
		moods:          moods,
		scribbleErrors: scribbleErrors,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEffects implements actor.Runtime.
func (r *effectRuntime) HandleEffects(_ context.Context, effects []actor.Effect, _ func(actor.Input)) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case effEmit:
			if err := r.out.emitRaw(e.Event, e.Payload); err != nil {
				logger.Debugf("realtime: dropping %s: %v", e.Event, err)
			}

		case effSaveWidget:
			r.saveWidget(e.Scribble)

		case effNotifyMood:
			r.moods.notify(e.Update)

		case effNotifyScribbleError:
			r.scribbleErrors.notify(e.Err)

		default:
			logger.Warnf("realtime: unhandled effect %T", eff)
		}
	}
}

// saveWidget writes the scribble in the background. A failure is logged and
// never touches reconciled state.
func (r *effectRuntime) saveWidget(s wire.Scribble) {
	if r.widget == nil {
		return
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(r.ctx, widgetSaveTimeout)
		defer cancel()

		meta := storage.ScribbleMeta{SenderName: s.FromUserName, Timestamp: s.Timestamp}
		if err := r.widget.SaveScribblePaths(ctx, s.Paths, meta); err != nil {
			logger.Errorf("realtime: failed to save scribble for widget: %v", err)
			return
		}
		logger.Debugf("realtime: saved scribble from %s for widget", s.FromUserName)
	}()
}

// Stop implements actor.Runtime. It waits for in-flight widget writes.
func (r *effectRuntime) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}
