// Package audio handles microphone capture and WAV persistence.
//
// Capture opens one input device through miniaudio (via malgo), slices the
// incoming PCM into fixed-duration frames, and hands them to a bounded queue.
// When the queue is full the oldest frame is dropped: bounded latency is
// preferred over unbounded buffering.
package audio
