package actor_test

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/weft/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestServiceActor_StartsOnceDependenciesAreReady(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := newDeps(t)
		process := mocks.NewMockProcess(gomock.NewController(t))
		h := start(t, serviceTarget(webID, compileID), d.rt)

		h.send(domain.Requested{Kind: domain.Service, Requester: root})
		h.expect(
			to(self(compileID), domain.Requested{Kind: domain.Build, Requester: self(webID)}),
			to(self(compileID), domain.Requested{Kind: domain.Service, Requester: self(webID)}),
		)

		h.send(domain.Ok{Kind: domain.Service, Target: compileID})
		h.expect()

		d.executor.EXPECT().Start(ports.Command{
			Target: webID,
			Dir:    "/repo",
			Script: "./bin/web",
		}).Return(process, nil).Times(1)
		h.send(domain.Ok{Kind: domain.Build, Target: compileID, Actual: true})
		h.expect(to(root, domain.Ok{Kind: domain.Service, Target: webID, Actual: true}))

		process.EXPECT().Stop(time.Second).Return(nil).Times(1)
		h.stop()
	})
}

func TestServiceActor_AnswersBuildRequestsImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := newDeps(t)
		h := start(t, serviceTarget(webID, compileID), d.rt)

		h.send(domain.Requested{Kind: domain.Build, Requester: root})
		h.expect(to(root, domain.Ok{Kind: domain.Build, Target: webID}))

		h.stop()
	})
}

func TestServiceActor_RestartsOncePerInvalidation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := newDeps(t)
		ctrl := gomock.NewController(t)
		first, second, third := mocks.NewMockProcess(ctrl), mocks.NewMockProcess(ctrl), mocks.NewMockProcess(ctrl)

		gomock.InOrder(
			d.executor.EXPECT().Start(gomock.Any()).Return(first, nil),
			first.EXPECT().Stop(gomock.Any()).Return(nil),
			d.executor.EXPECT().Start(gomock.Any()).Return(second, nil),
			second.EXPECT().Stop(gomock.Any()).Return(nil),
			d.executor.EXPECT().Start(gomock.Any()).Return(third, nil),
			third.EXPECT().Stop(gomock.Any()).Return(nil),
		)

		h := start(t, serviceTarget(webID), d.rt)
		h.send(domain.Requested{Kind: domain.Service, Requester: root})
		h.expect(to(root, domain.Ok{Kind: domain.Service, Target: webID, Actual: true}))

		h.send(
			domain.Invalidated{Kind: domain.Service, Target: webID},
			domain.Invalidated{Kind: domain.Service, Target: webID},
		)
		restarted := []domain.Output{
			to(root, domain.Invalidated{Kind: domain.Service, Target: webID}),
			to(root, domain.Ok{Kind: domain.Service, Target: webID, Actual: true}),
		}
		h.expect(append(restarted, restarted...)...)

		h.stop()
	})
}

func TestServiceActor_StopsWhenUnrequested(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := newDeps(t)
		process := mocks.NewMockProcess(gomock.NewController(t))
		d.executor.EXPECT().Start(gomock.Any()).Return(process, nil).Times(1)

		h := start(t, serviceTarget(webID, dbID), d.rt)
		h.send(
			domain.Requested{Kind: domain.Service, Requester: root},
			domain.Ok{Kind: domain.Build, Target: dbID},
			domain.Ok{Kind: domain.Service, Target: dbID, Actual: true},
		)
		h.drain()

		process.EXPECT().Stop(time.Second).Return(errors.New("no such process")).Times(1)
		d.logger.EXPECT().Warn("app::web - Failed to stop service: no such process").Times(1)
		h.send(domain.Unrequested{Kind: domain.Service, Requester: root})
		h.expect(
			to(self(dbID), domain.Unrequested{Kind: domain.Build, Requester: self(webID)}),
			to(self(dbID), domain.Unrequested{Kind: domain.Service, Requester: self(webID)}),
		)

		h.stop()
	})
}

func TestServiceActor_StartFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := newDeps(t)
		failure := errors.New("fork/exec /bin/sh: no such file or directory")
		d.executor.EXPECT().Start(gomock.Any()).Return(nil, failure).Times(1)

		h := start(t, serviceTarget(webID), d.rt)
		h.send(domain.Requested{Kind: domain.Service, Requester: root})
		h.expect(
			domain.TargetExecutionError{Target: webID, Kind: domain.Service, Err: failure},
			to(root, domain.Failed{Kind: domain.Service, Target: webID}),
		)

		h.stop()
	})
}

func TestServiceActor_DependencyInvalidationWaitsForRebuild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := newDeps(t)
		ctrl := gomock.NewController(t)
		first, second := mocks.NewMockProcess(ctrl), mocks.NewMockProcess(ctrl)
		d.executor.EXPECT().Start(gomock.Any()).Return(first, nil).Times(1)

		h := start(t, serviceTarget(webID, compileID), d.rt)
		h.send(
			domain.Requested{Kind: domain.Service, Requester: root},
			domain.Ok{Kind: domain.Build, Target: compileID, Actual: true},
			domain.Ok{Kind: domain.Service, Target: compileID},
		)
		h.drain()

		// The old process keeps running until the dependency is rebuilt.
		h.send(domain.Invalidated{Kind: domain.Build, Target: compileID})
		h.expect(to(root, domain.Invalidated{Kind: domain.Service, Target: webID}))

		gomock.InOrder(
			first.EXPECT().Stop(gomock.Any()).Return(nil),
			d.executor.EXPECT().Start(gomock.Any()).Return(second, nil),
		)
		h.send(domain.Ok{Kind: domain.Build, Target: compileID, Actual: true})
		h.expect(to(root, domain.Ok{Kind: domain.Service, Target: webID, Actual: true}))

		second.EXPECT().Stop(gomock.Any()).Return(nil)
		h.stop()
	})
}
