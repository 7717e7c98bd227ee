// Command bilidl downloads every part of a bilibili video and converts each
// part to MP3.
//
// Usage:
//
//	bilidl download https://www.bilibili.com/video/BV1xy411c7md
//	bilidl pages https://www.bilibili.com/video/BV1xy411c7md
//	bilidl config init
//	bilidl deps
package main
