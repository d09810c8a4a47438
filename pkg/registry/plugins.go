package registry

import (
	"fmt"
	"io/fs"
	"os"
	"plugin"

	"github.com/prosaga/prosaga/pkg/protocol"
)

// LoadPlugins opens every .so file under <pluginsPath>/steps and registers
// the protocol.StepFactory each exports under the symbol "Step".
func (r *Registry) LoadPlugins(pluginsPath string) error {
	rootPath := pluginsPath + "/steps"

	root := os.DirFS(rootPath)

	pluginFiles, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return fmt.Errorf("failed to scan plugins path %s: %w", rootPath, err)
	}

	logger := r.logger.With("path", rootPath)
	logger.Info("Loading step plugins", "count", len(pluginFiles))

	for _, file := range pluginFiles {
		plg, err := plugin.Open(rootPath + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to open plugin %s: %w", file, err)
		}

		symbol, err := plg.Lookup("Step")
		if err != nil {
			return fmt.Errorf("plugin %s does not export a Step symbol: %w", file, err)
		}

		factory, ok := symbol.(protocol.StepFactory)
		if !ok {
			return fmt.Errorf("plugin %s: Step symbol is not a protocol.StepFactory", file)
		}

		if err := r.Register(factory); err != nil {
			return fmt.Errorf("failed to register plugin %s: %w", file, err)
		}

		logger.Info("Loaded step plugin", "plugin", file, "type", factory.ID())
	}

	return nil
}
