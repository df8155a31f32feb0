package nodekit

import (
	"context"
	"fmt"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/meshed/agentgraph/pkg/prompt"
	"github.com/meshed/agentgraph/pkg/schema"
)

// Aggregation renders a template from several fields, calls the model and writes
// the structured reply into fields.
//
// The reply must decode to a JSON object with exactly the Contract keys. Anything
// else is a contract-violation fault: the raw reply goes to the trace and no field
// is written.
type Aggregation struct {
	Model    ports.ModelAdapter
	Prompt   Template
	Contract schema.Schema
	Deadline time.Duration
	Retry    RetryConfig

	// Inputs builds the template values. Defaults to FieldsWithRequest.
	Inputs func(s *domain.State) map[string]any

	// Rename maps contract keys to field names. Unmapped keys keep their name.
	Rename map[string]string
}

// Execute implements domain.Node.
func (a *Aggregation) Execute(ctx context.Context, s *domain.State) *domain.State {
	tpl, err := a.Prompt.Resolve(ctx)
	if err != nil {
		return s.WithFault(&domain.Fault{Kind: domain.FaultModelError, Code: domain.CodeNotFound, Message: err.Error()})
	}

	inputs := a.Inputs
	if inputs == nil {
		inputs = FieldsWithRequest
	}
	call := domain.ModelCall{Prompt: prompt.Render(tpl, inputs(s)), Deadline: a.Deadline}

	records := Retry(ctx, a.Retry, func(ctx context.Context) domain.CallRecord {
		return InvokeModel(ctx, a.Model, call)
	})
	s = RecordAll(s, records...)
	last := Last(records)
	if !last.OK() {
		return s.WithFault(last.Fault)
	}

	obj, err := schema.DecodeObject(last.Text, a.Contract)
	if err != nil {
		Logger(ctx).Warn("Model reply violated contract", "err", err)
		s = s.AppendMessage(domain.Message{
			Role:    domain.RoleModel,
			Kind:    domain.KindContractViolation,
			Content: fmt.Sprintf("%v\nraw response:\n%s", err, last.Text),
		})
		return s.WithFault(domain.NewFault(domain.FaultContractViolation, "%v", err))
	}

	values := make(map[string]any, len(obj))
	for k, v := range obj {
		if to, ok := a.Rename[k]; ok {
			k = to
		}
		values[k] = v
	}
	return s.SetAll(values).
		Append(domain.RoleSystem, domain.KindText, fmt.Sprintf("decoded %d contract keys", len(values)))
}
