// Package chat provides a streaming client for OpenAI-compatible chat
// completion servers such as LM Studio.
//
// # Streaming
//
// Client.Stream posts to <base_url>/chat/completions with stream enabled and
// relays each choices[0].delta.content fragment to a callback as it arrives.
// Server-sent event lines that are not valid JSON are skipped and the [DONE]
// sentinel ends the stream.
//
// # Retry Behaviour
//
// Until the upstream accepts the request, the client retries on HTTP
// 408/429/5xx errors, connection failures and timeouts with exponential
// backoff (base 1s, max 10s, up to 3 attempts by default). Once the first
// fragment has been relayed nothing is retried; a broken stream is reported
// to the caller.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Stream: run one streamed completion.
// Client.Ping: list models to verify the upstream is reachable.
package chat
