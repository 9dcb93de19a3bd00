/*
Package flowork compiles directed graphs of prompt nodes into executable
workflows and runs them against a language model.

# Overview

A Workflow is an ordered list of Nodes. Each node carries a prompt template
and routing rules: a default target plus an ordered list of conditional
(output key, target) pairs. The model is instructed to end its response
with a marker of the form

	ROUTING_KEY: <key>

and the engine resolves that key against the node's routing table to pick
the next node. The sentinel target End terminates the run.

# Basic Usage

Build a workflow, compile it, and run it:

	wf := flowork.NewWorkflow("triage", "routes support tickets")
	classify := flowork.NewNode("classify", "Classify the ticket: {input_text}")
	classify.Routing.Conditional = []flowork.RoutingRule{
	    {OutputKey: "urgent", Target: escalate.ID},
	}
	classify.Routing.DefaultTarget = flowork.End
	wf.AddNode(classify)

	compiler := flowork.NewCompiler(client)
	graph, err := compiler.Compile(wf)
	if err != nil {
	    log.Fatal(err)
	}

	state, trace, err := graph.Run(ctx, "printer is on fire")
	summary := flowork.Summarize(state)

# Error Routing

Node failures never abort a run. A failed node produces an output of the
form "ERROR: <cause>" carrying the reserved "error" routing key, and the
run continues through whatever the node's "error" route points at. Every
compiled routing table has an "error" entry: the compiler synthesizes an
implicit "error" -> End route for nodes that do not declare one, so the
loop can always make progress. Callers detect failed runs by inspecting
the final output for the "ERROR:" prefix (see Summarize).

# Loops

The graph is not required to be acyclic. Every run is bounded by a
recursion limit derived from the node count (nodes*3+10 by default), so a
cycle without a terminal route halts after exactly that many steps.
*/
package flowork
