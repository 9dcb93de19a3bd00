package flowork

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the workflow's structure: at least one node, unique
// node IDs, non-empty names and prompts, and every routing target
// (default or conditional) resolving to End or a node in this workflow.
// All violations are reported, joined into a single error.
func (w *Workflow) Validate() error {
	var errs []error

	if len(w.Nodes) == 0 {
		return ErrNoNodes
	}

	ids := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if ids[n.ID] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID))
		}
		ids[n.ID] = true

		if strings.TrimSpace(n.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: node %s", ErrEmptyNodeName, n.ID))
		}
		if strings.TrimSpace(n.PromptTemplate) == "" {
			errs = append(errs, fmt.Errorf("%w: node %q", ErrEmptyPrompt, n.Name))
		}
	}

	for _, n := range w.Nodes {
		if target := strings.TrimSpace(n.Routing.DefaultTarget); target != End && !ids[target] {
			errs = append(errs, fmt.Errorf("%w: node %q default target %q",
				ErrDanglingTarget, n.Name, target))
		}
		for _, rule := range n.Routing.Conditional {
			if strings.TrimSpace(rule.OutputKey) == "" {
				errs = append(errs, fmt.Errorf("%w: node %q", ErrEmptyRoutingKey, n.Name))
			}
			if target := strings.TrimSpace(rule.Target); target != End && !ids[target] {
				errs = append(errs, fmt.Errorf("%w: node %q key %q target %q",
					ErrDanglingTarget, n.Name, rule.OutputKey, target))
			}
		}
	}

	return errors.Join(errs...)
}
