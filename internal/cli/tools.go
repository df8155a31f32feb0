package cli

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

// toolChain tries each adapter in order and moves on only when an adapter does
// not know the capability. The last adapter's answer is final.
type toolChain []ports.ToolAdapter

func (c toolChain) Invoke(ctx context.Context, call domain.ToolCall) (any, error) {
	var err error
	for _, t := range c {
		var result any
		result, err = t.Invoke(ctx, call)
		if !isUnknownCapability(err) {
			return result, err
		}
	}
	if err == nil {
		err = &domain.Fault{Kind: domain.FaultToolError, Code: domain.CodeNotFound, Message: domain.ErrUnknownCapability.Error() + ": " + call.Capability}
	}
	return nil, err
}

// ListCapabilities merges the capabilities of every listing adapter. Earlier
// adapters shadow later ones with the same name.
func (c toolChain) ListCapabilities(ctx context.Context) ([]domain.Capability, error) {
	seen := make(map[string]bool)
	var caps []domain.Capability
	var errs []error
	for _, t := range c {
		lister, ok := t.(ports.CapabilityLister)
		if !ok {
			continue
		}
		listed, err := lister.ListCapabilities(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, cp := range listed {
			if !seen[cp.Name] {
				seen[cp.Name] = true
				caps = append(caps, cp)
			}
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps, errors.Join(errs...)
}

func isUnknownCapability(err error) bool {
	var f *domain.Fault
	if !errors.As(err, &f) {
		return false
	}
	return f.Code == domain.CodeNotFound && strings.HasPrefix(f.Message, domain.ErrUnknownCapability.Error())
}
