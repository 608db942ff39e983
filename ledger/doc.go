// Package ledger persists the build-state record kept next to the build
// output: for each task, its last status, the outputs it owns, a content
// fingerprint of those outputs, and the invocation that produced them.
//
// The record lives at <build>/.mbedjs-state.yaml. It is rewritten atomically
// after every change so an interrupted build never leaves it half written.
package ledger
