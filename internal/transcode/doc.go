// Package transcode converts downloaded media into MP3 files with ffmpeg.
//
// Output follows the same publish rule as downloads: ffmpeg writes
// <base>.tmp.mp3 and the file is renamed to <base>.mp3 only after ffmpeg
// exits cleanly. External processes run through the Executor interface so
// tests can substitute a stub.
package transcode
