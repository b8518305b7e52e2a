package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/weft/internal/adapters/shell"
	"go.trai.ch/weft/internal/core/ports"
)

const (
	WalkerNodeID graft.ID = "adapter.fs.walker"
	ProberNodeID graft.ID = "adapter.fs.prober"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.ResourceProber]{
		ID:        ProberNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID, shell.NodeID},
		Run: func(ctx context.Context) (ports.ResourceProber, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewProber(walker, executor), nil
		},
	})
}
