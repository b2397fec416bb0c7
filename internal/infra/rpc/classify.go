package rpc

import "strings"

// Classify maps a raw submission failure to a Kind. Preflight and request
// shape errors are fatal; everything that can clear up on its own (rate
// limits, expired blockhashes, node lag, 5xx) is transient.
func Classify(err error) Kind {
	if err == nil {
		return KindTransient
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	// Fatal (request or program-level rejection)
	// -32700: Parse error, -32600: Invalid Request, -32601: Method not found,
	// -32602: Invalid params, -32002: preflight/simulation failure
	if strings.Contains(s, "-32700") || strings.Contains(s, "-32600") ||
		strings.Contains(s, "-32601") || strings.Contains(s, "-32602") ||
		strings.Contains(s, "-32002") ||
		strings.Contains(sLower, "simulation failed") ||
		strings.Contains(sLower, "invalid transaction") ||
		strings.Contains(sLower, "insufficient funds") ||
		strings.Contains(sLower, "signature verification failure") {
		return KindFatal
	}

	// Transient (throttling, stale anchor, node availability)
	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit") ||
		strings.Contains(sLower, "blockhash not found") ||
		strings.Contains(sLower, "block height exceeded") ||
		strings.Contains(sLower, "node is behind") ||
		strings.Contains(sLower, "timeout") ||
		strings.Contains(sLower, "connection") {
		return KindTransient
	}

	// Default to fatal: an unrecognized rejection is not worth re-spending
	// the batch's retry budget on.
	return KindFatal
}
