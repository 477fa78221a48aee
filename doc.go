/*
Package bigchain is a client driver for a BigchainDB-style asset federation.
It constructs, signs, and submits CREATE and TRANSFER transactions to one or
more federation nodes over HTTP and queries transaction state.

Requests are spread over the configured nodes with a round-robin picker.
Read-only calls may fail over to the next node on transport failure; mutating
calls are never retried on a second node, since a duplicate submission of a
CREATE or TRANSFER is not idempotent.
*/

package bigchain
