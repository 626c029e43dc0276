package engine

import (
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/runners/concurrent"
	"github.com/alexisbeaulieu97/streamy/internal/runners/database"
	"github.com/alexisbeaulieu97/streamy/internal/runners/loop"
	"github.com/alexisbeaulieu97/streamy/internal/runners/request"
	"github.com/alexisbeaulieu97/streamy/internal/runners/script"
	"github.com/alexisbeaulieu97/streamy/internal/runners/wait"
)

// RegisterDefaultRunners registers the six closed-set step kinds into the
// plugin registry. Mirrors the teacher's cmd-time plugin registration
// pattern (RegisterPortsPlugins), done once at process startup rather than
// via package init so tests can reset and re-register freely.
func RegisterDefaultRunners() error {
	runners := []plugin.Runner{
		request.New(),
		database.New(),
		wait.New(),
		loop.New(),
		concurrent.New(),
		script.New(),
	}
	for _, r := range runners {
		if err := plugin.Register(r); err != nil {
			return err
		}
	}
	return nil
}
