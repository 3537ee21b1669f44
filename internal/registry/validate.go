package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/optree/internal/ctxlog"
)

// ValidateRegistry checks that every factory produces a plugin, that the
// plugin reports the name it is registered under and that two calls yield
// distinct instances.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	if len(r.factories) == 0 {
		errs = append(errs, "no plugins registered")
	}

	for _, name := range r.Names() {
		first, second := r.factories[name](), r.factories[name]()
		if first == nil || second == nil {
			errs = append(errs, fmt.Sprintf("plugin '%s': factory returned nil", name))
			continue
		}
		if got := first.Name(); got != name {
			errs = append(errs, fmt.Sprintf("plugin '%s': instance reports name '%s'", name, got))
		}
		if first == second {
			errs = append(errs, fmt.Sprintf("plugin '%s': factory returns a shared instance", name))
		}
		logger.Debug("Plugin validated.", "name", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
