package graph

import (
	"context"

	"github.com/smallnest/graphlstm/cell"
	"github.com/smallnest/graphlstm/log"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node's cell is about to be called
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node's cell returned a new state
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node's cell failed
	NodeEventError NodeEvent = "error"
)

// NodeListener receives per-node events from Net.Call. In parallel mode it is
// called from several goroutines at once.
type NodeListener interface {
	// OnNodeEvent is called when a node event occurs. state is the node's
	// new state for NodeEventComplete and the previous state otherwise.
	OnNodeEvent(ctx context.Context, event NodeEvent, node NodeRecord, state cell.State, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event NodeEvent, node NodeRecord, state cell.State, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event NodeEvent, node NodeRecord, state cell.State, err error) {
	f(ctx, event, node, state, err)
}

// LoggingListener logs node events
type LoggingListener struct {
	logger log.Logger
}

// NewLoggingListener creates a listener that logs to logger, or to the
// default logger when logger is nil.
func NewLoggingListener(logger log.Logger) *LoggingListener {
	return &LoggingListener{logger: log.Component(logger, "node")}
}

// OnNodeEvent implements the NodeListener interface
func (l *LoggingListener) OnNodeEvent(_ context.Context, event NodeEvent, node NodeRecord, _ cell.State, err error) {
	switch event {
	case NodeEventStart:
		l.logger.Debug("%s[%d] start", node.Name, node.Index)
	case NodeEventComplete:
		l.logger.Debug("%s[%d] complete", node.Name, node.Index)
	case NodeEventError:
		l.logger.Error("%s[%d] failed: %v", node.Name, node.Index, err)
	}
}
