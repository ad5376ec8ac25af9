// Package transcribe submits recorded audio to the AssemblyAI REST API and
// waits for the finished transcript.
//
// A transcription is three calls: the raw audio is uploaded to /v2/upload,
// a transcript job referencing the returned URL is created at /v2/transcript,
// and /v2/transcript/<id> is polled until the job reports completed or error.
// Speaker labels and bullet-point summaries are requested per call; the
// result only carries utterances and summary when they were asked for.
package transcribe
