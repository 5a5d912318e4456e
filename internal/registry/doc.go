// Package registry stores the immutable task table: named developer tasks,
// their shell commands, and their prerequisite ordering. Construction
// validates the prerequisite graph (unique names, resolved references, no
// cycles) so execution never starts on a malformed definition set.
package registry
