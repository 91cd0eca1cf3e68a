// Package protocol builds the batched raw-command queries sent to rigctld and
// decodes its replies into typed parameter values. Everything here is pure:
// no I/O, no timing. Framing of replies is the caller's problem (see the
// settle window in the poller).
package protocol

// Kind selects how the digits following a key are decoded.
type Kind int

const (
	KindLevel     Kind = iota // integer clamped to [0,255]
	KindFrequency             // signed integer in Hz, unbounded
	KindEnum                  // raw integer, unclamped
)

// Key is the textual identifier of one piece of rig telemetry, exactly as it
// appears on the wire (e.g. "AG0", "FA").
type Key string

const (
	KeyAFGain     Key = "AG0"
	KeySquelch    Key = "SQ0"
	KeyMeter      Key = "RM0"
	KeyPower      Key = "PS"
	KeyFreqA      Key = "FA"
	KeyFreqB      Key = "FB"
	KeyTXPower    Key = "PC"
	KeyTuner      Key = "AC"
	KeyTX         Key = "TX"
	KeyAttenuator Key = "RA0"
	KeyPreamp     Key = "PA0"
	KeyVFOSelect  Key = "VS"
	KeyNoiseBlank Key = "NB0"
	KeyMode       Key = "MD0"
	KeyMonitor    Key = "ML0"
)

// Keys is the fixed poll set, in the order values are published.
var Keys = []Key{
	KeyAFGain, KeySquelch, KeyMeter, KeyPower, KeyFreqA, KeyFreqB, KeyTXPower,
	KeyTuner, KeyTX, KeyAttenuator, KeyPreamp, KeyVFOSelect, KeyNoiseBlank,
	KeyMode, KeyMonitor,
}

type keyInfo struct {
	kind  Kind
	label string
}

var keyTable = map[Key]keyInfo{
	KeyAFGain:     {KindLevel, "AF gain"},
	KeySquelch:    {KindLevel, "Squelch"},
	KeyMeter:      {KindLevel, "Meter"},
	KeyPower:      {KindLevel, "Power on"},
	KeyFreqA:      {KindFrequency, "VFO A"},
	KeyFreqB:      {KindFrequency, "VFO B"},
	KeyTXPower:    {KindLevel, "TX power"},
	KeyTuner:      {KindLevel, "Tuner"},
	KeyTX:         {KindLevel, "Transmit"},
	KeyAttenuator: {KindLevel, "Attenuator"},
	KeyPreamp:     {KindLevel, "Preamp"},
	KeyVFOSelect:  {KindLevel, "VFO select"},
	KeyNoiseBlank: {KindLevel, "Noise blanker"},
	KeyMode:       {KindEnum, "Mode"},
	KeyMonitor:    {KindLevel, "Monitor level"},
}

// Kind reports the decoding rule for k. Unknown keys decode as levels.
func (k Key) Kind() Kind {
	return keyTable[k].kind
}

// Label returns a short human-readable name, or the key itself if unknown.
func (k Key) Label() string {
	if info, ok := keyTable[k]; ok {
		return info.label
	}
	return string(k)
}

// Known reports whether k belongs to the poll set.
func (k Key) Known() bool {
	_, ok := keyTable[k]
	return ok
}

// StateMap holds the values decoded from one poll reply. Keys without a
// decodable record are absent, never zero-filled.
type StateMap map[Key]int64
