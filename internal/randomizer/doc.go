// Package randomizer issues randomly timed commands to random receivers.
//
// A run waits a random start delay, then repeatedly pauses a random time
// and sends an action drawn from the beep and shock probabilities to a
// receiver drawn by probability weight, until a random runtime has
// elapsed. Waits are scheduler tasks, so canceling a run takes effect at
// the next wait. At most one run is active per Randomizer.
package randomizer
