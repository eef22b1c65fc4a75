// Package stream bridges a streaming text generation into two consumers at
// once: a live token callback for incremental display and an accumulated
// string for the conversation history. The generation worker's token channel
// is the thread-safe blocking conveyance; Bridge is its sole consumer. The
// invariant is that the accumulated result always equals the concatenation of
// the tokens delivered to the callback.
package stream

import (
	"context"
	"strings"

	"vidmind/internal/logging"
	"vidmind/internal/types"
)

// Bridge drains a generation stream, forwarding every token to onToken and
// accumulating the full text. It returns the accumulated text along with any
// stream error; on error or cancellation the text gathered so far is still
// returned.
func Bridge(ctx context.Context, tokens <-chan string, errs <-chan error, onToken types.TokenCallback) (string, error) {
	var sb strings.Builder
	count := 0

	for tokens != nil || errs != nil {
		select {
		case token, ok := <-tokens:
			if !ok {
				tokens = nil
				continue
			}
			sb.WriteString(token)
			count++
			if onToken != nil {
				onToken(token)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				logging.Stream("Bridge: stream failed after %d tokens: %v", count, err)
				return sb.String(), err
			}
		case <-ctx.Done():
			logging.Stream("Bridge: cancelled after %d tokens", count)
			return sb.String(), ctx.Err()
		}
	}

	logging.StreamDebug("Bridge: accumulated %d tokens, %d chars", count, sb.Len())
	return sb.String(), nil
}
