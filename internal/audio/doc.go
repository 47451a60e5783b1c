// Package audio plays a short feedback sound when the volume changes.
// It uses the beep library to play WAV, OGG and MP3 files, or a built-in
// tone when no file is configured.
package audio
