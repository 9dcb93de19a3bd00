package flowork

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/floworkhq/flowork/pkg/flowork/llm"
	"github.com/floworkhq/flowork/pkg/flowork/observability"
)

// PromptPlaceholder is the token in a prompt template that is replaced
// by the node's input context.
const PromptPlaceholder = "{input_text}"

// thinkPattern matches chain-of-thought sections emitted by reasoning
// models; they are stripped before any routing-key processing.
var thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// nodeRunner executes one node: builds the prompt, invokes the model,
// validates the routing marker, and updates the execution state.
//
// run never returns an error. Every failure — transport, quota,
// timeout, empty response — becomes an output of the form
// "ERROR: <cause>" carrying the ErrorKey marker, so the graph's own
// error route decides what happens next.
type nodeRunner struct {
	node        Node
	visibleKeys []string
	client      llm.Client
	router      *Router
	timeout     time.Duration
}

// run executes the node against the given state and returns the
// updated state. The input state is not mutated.
func (nr *nodeRunner) run(ctx context.Context, logger *slog.Logger, state *ExecutionState) *ExecutionState {
	contextInput := state.Input
	if state.LastOutput != "" {
		contextInput = nr.router.StripMarker(state.LastOutput)
	}

	prompt := nr.buildPrompt(contextInput)
	full := nr.addRoutingInstructions(prompt)

	callCtx := ctx
	if nr.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, nr.timeout)
		defer cancel()
	}

	resp, err := nr.client.Complete(callCtx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: full}},
	})
	if err != nil {
		observability.LogNodeFailure(logger, nr.node.ID, err.Error())
		return nr.fail(state, err.Error())
	}

	content := strings.TrimSpace(thinkPattern.ReplaceAllString(resp.Text(), ""))
	if content == "" {
		observability.LogNodeFailure(logger, nr.node.ID, "model returned empty response")
		return nr.fail(state, "model returned empty response")
	}

	return nr.update(state, nr.ensureRoutingKey(content))
}

// buildPrompt substitutes the placeholder with the input context, or
// appends the context as a labeled block when the template carries no
// placeholder. An empty context leaves the template verbatim.
func (nr *nodeRunner) buildPrompt(contextInput string) string {
	prompt := nr.node.PromptTemplate
	if strings.Contains(prompt, PromptPlaceholder) {
		return strings.ReplaceAll(prompt, PromptPlaceholder, contextInput)
	}
	if contextInput != "" {
		return prompt + "\n\nInput Context:\n" + contextInput
	}
	return prompt
}

// addRoutingInstructions appends deterministic instructions telling the
// model to end its response with the routing marker and one of the
// node's visible keys. DefaultKey is omitted from the displayed options
// when conditional keys exist.
func (nr *nodeRunner) addRoutingInstructions(prompt string) string {
	var options []string
	for _, key := range nr.visibleKeys {
		if key != "" && key != DefaultKey {
			options = append(options, "'"+key+"'")
		}
	}

	var b strings.Builder
	b.WriteString("Current Task (")
	b.WriteString(nr.node.Name)
	b.WriteString("):\n")
	b.WriteString(prompt)
	b.WriteString("\n")
	b.WriteString("\n\n--- ROUTING INSTRUCTIONS ---\n")
	b.WriteString("1. Perform the task above.\n")
	b.WriteString("2. At the VERY END of your response, append exactly: '" + RoutingMarker + " <key>'\n")
	if len(options) > 0 {
		b.WriteString("3. <key> must be ONE of: [" + strings.Join(options, ", ") + "].\n")
		b.WriteString("4. If none apply, use: '" + RoutingMarker + " " + DefaultKey + "'\n")
	} else {
		b.WriteString("3. Use the key: '" + DefaultKey + "'\n")
	}
	b.WriteString("--- END ROUTING ---")
	return b.String()
}

// ensureRoutingKey guarantees the content ends with a marker whose key
// is in the node's visible set. An out-of-vocabulary key from the model
// is never trusted: its marker is stripped and the default-key marker
// appended instead. Content without any marker gets the default too.
func (nr *nodeRunner) ensureRoutingKey(content string) string {
	if m := keyPattern.FindStringSubmatch(strings.TrimRight(content, " \t\r\n")); m != nil {
		if slices.Contains(nr.visibleKeys, m[1]) {
			return content
		}
		content = nr.router.StripMarker(content)
	}
	return content + "\n\n" + RoutingMarker + " " + DefaultKey
}

// update records the node's output in a copy of the state.
func (nr *nodeRunner) update(state *ExecutionState, content string) *ExecutionState {
	next := state.clone()
	next.NodeOutputs[nr.node.ID] = content
	next.LastOutput = content
	next.CurrentNode = nr.node.ID
	return next
}

// fail encodes a node failure as state, carrying the error marker so
// the router follows the node's error route.
func (nr *nodeRunner) fail(state *ExecutionState, cause string) *ExecutionState {
	return nr.update(state, ErrorPrefix+cause+"\n\n"+RoutingMarker+" "+ErrorKey)
}
