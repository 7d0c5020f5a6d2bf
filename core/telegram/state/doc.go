// Package state provides a lightweight per-operator session store for
// conversational Telegram flows. It is domain-agnostic: flows define their
// own step constants and draft payloads.
package state
