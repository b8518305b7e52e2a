package actor_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/weft/internal/adapters/telemetry"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports/mocks"
	"go.trai.ch/weft/internal/engine/actor"
	"go.trai.ch/weft/internal/engine/incremental"
	"go.uber.org/mock/gomock"
)

var (
	root      = domain.RootActor
	compileID = domain.NewTargetID("app", "compile")
	libID     = domain.NewTargetID("app", "lib")
	webID     = domain.NewTargetID("app", "web")
	dbID      = domain.NewTargetID("app", "db")
	allID     = domain.NewTargetID("app", "all")
)

type deps struct {
	store    *mocks.MockStateStore
	prober   *mocks.MockResourceProber
	executor *mocks.MockExecutor
	logger   *mocks.MockLogger
	rt       actor.Runtime
}

func newDeps(t *testing.T) *deps {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := &deps{
		store:    mocks.NewMockStateStore(ctrl),
		prober:   mocks.NewMockResourceProber(ctrl),
		executor: mocks.NewMockExecutor(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	d.logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	d.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	d.store.EXPECT().Load(gomock.Any()).Return(nil, nil).AnyTimes()
	d.store.EXPECT().Delete(gomock.Any()).Return(nil).AnyTimes()

	tracer := telemetry.NoOpTracer{}
	d.rt = actor.Runtime{
		Builder:     incremental.NewRunner(d.store, d.prober, d.executor, d.logger, tracer),
		Executor:    d.executor,
		Logger:      d.logger,
		Tracer:      tracer,
		StopTimeout: time.Second,
	}
	return d
}

// harness runs one actor and collects everything it emits.
type harness struct {
	t        *testing.T
	inbox    chan domain.Message
	out      chan domain.Output
	done     chan struct{}
	finished chan struct{}
}

func start(t *testing.T, target domain.Target, rt actor.Runtime) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		inbox:    make(chan domain.Message, 64),
		out:      make(chan domain.Output, 64),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	a := actor.New(target, actor.Mailbox{Inbox: h.inbox, Out: h.out, Done: h.done}, rt)
	go func() {
		defer close(h.finished)
		a.Run()
	}()
	return h
}

func (h *harness) send(msgs ...domain.Message) {
	for _, msg := range msgs {
		h.inbox <- msg
	}
}

// drain waits for the actor to settle and returns what it emitted since the
// last call.
func (h *harness) drain() []domain.Output {
	synctest.Wait()
	var outputs []domain.Output
	for {
		select {
		case o := <-h.out:
			outputs = append(outputs, o)
		default:
			return outputs
		}
	}
}

func (h *harness) expect(want ...domain.Output) {
	h.t.Helper()
	require.Equal(h.t, want, h.drain())
}

func (h *harness) stop() {
	close(h.done)
	<-h.finished
}

func to(dest domain.ActorID, msg domain.Message) domain.MessageActor {
	return domain.MessageActor{Dest: dest, Msg: msg}
}

func self(id domain.TargetID) domain.ActorID {
	return domain.TargetActor(id)
}

func buildTarget(id domain.TargetID, deps ...domain.TargetID) *domain.BuildTarget {
	t := &domain.BuildTarget{Script: "make " + id.Name}
	t.ID = id
	t.ProjectDir = "/repo"
	t.Dependencies = deps
	return t
}

func serviceTarget(id domain.TargetID, deps ...domain.TargetID) *domain.ServiceTarget {
	t := &domain.ServiceTarget{Script: "./bin/" + id.Name}
	t.ID = id
	t.ProjectDir = "/repo"
	t.Dependencies = deps
	return t
}

func aggregateTarget(id domain.TargetID, deps ...domain.TargetID) *domain.AggregateTarget {
	t := &domain.AggregateTarget{}
	t.ID = id
	t.Dependencies = deps
	return t
}
