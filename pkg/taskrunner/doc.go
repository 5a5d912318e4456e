// Package taskrunner hosts the shared abstractions for building and executing
// makex tasks. It exposes the `Executor` interface plus helpers (`Factory`,
// `Resolve`) so CLI packages can inject taskexec.Dependencies once and obtain
// a runner, while unit tests can swap in fakes.
package taskrunner
