// Package command implements the command dispatcher.
//
// The dispatcher owns the booted receivers. Every command is range checked,
// limited by the shock limits of its receiver, normalized to the receiver's
// duration increment and then transmitted under a single lock, so that
// two commands never overlap on the air. Receivers that fall asleep are kept
// awake by periodic tasks registered with the scheduler at boot.
package command
