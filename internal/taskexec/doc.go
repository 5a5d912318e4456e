// Package taskexec executes registry tasks: prerequisites run depth-first in
// declared order, each task at most once per invocation, and the first
// failing command aborts the remaining chain.
package taskexec
