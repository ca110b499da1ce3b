// Package analysis talks to the remote graph analysis service.
//
// The service exposes three JSON POST endpoints:
//
//	POST /get-tw             GraphData + tnorm       -> {tw, sequence}
//	POST /check-isomorphism  {graph1, graph2}        -> {isomorphic, mappings}
//	POST /get-similarity     {graph1, graph2, tnorm} -> {similarity}
//
// Numeric results come back as a number or the marker "X" (not
// computable). [Value] keeps the two apart so callers never confuse an
// undefined result with zero or with a transport failure.
//
// Every call is idempotent. Network errors and 5xx responses are retried
// with exponential backoff; other non-2xx responses fail immediately with
// a TRANSPORT_ERROR. Successful responses are cached by endpoint and
// request body.
package analysis
