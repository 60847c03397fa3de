package platform

// NumLEDs is the number of status LEDs the board exposes.
const NumLEDs = 8

// LEDs holds the current on/off state of each status LED. The
// application writes to it directly; there is no read-modify-write
// contract beyond "last write wins" per LED.
var LEDs [NumLEDs]byte
