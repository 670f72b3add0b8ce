package runner

import "context"

// CommandRunner invokes one external scanning tool and blocks until it
// exits. Implementations must honor ctx cancellation; the context deadline
// is the only cancellation mechanism a dispatched job has.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string) error
}
