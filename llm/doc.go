// Package llm provides the text generation backend for workflow runs: a
// minimal chat-completions client plus composable provider wrappers for
// rate limiting and logging.
package llm
