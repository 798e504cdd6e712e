// Package taskrunner exposes a programmatic facade for assembling and running
// task graphs without the CLI. Consumers register tasks, optionally backed by
// external commands, and run a target through the same resolution and
// execution engine the forge binary uses.
package taskrunner
