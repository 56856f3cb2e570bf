// Package codec implements the radio protocols spoken by the supported
// receiver collars.
//
// Every protocol is a Codec: Generate builds the logical frame including its
// checksum, EncodeForTransmission expands the frame into the physical bit
// stream, and Command assembles the complete transmit buffer for one command
// (action remapping, clamping and repetition). Codecs are pure and keep no
// state between calls.
package codec
