// Package glass holds the domain types shared by the pairing and device
// session layers: the two sides of the frame and the per-side unit record.
package glass

// Side identifies one physical half of the glasses.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Sides returns both sides in pairing order (left first).
func Sides() []Side {
	return []Side{Left, Right}
}

// Valid reports whether s names a recognized side.
func (s Side) Valid() bool {
	return s == Left || s == Right
}

// Marker returns the advertised-name substring that identifies this side.
func (s Side) Marker() string {
	if s == Left {
		return "_L_"
	}
	return "_R_"
}

// Unit is one discovered or paired half of the glasses. Address is the
// transport-level identifier and the join key between discovery results,
// saved settings and live connections. RSSI is advisory, discovery-time only.
type Unit struct {
	Side    Side
	Address string
	Name    string
	RSSI    int16
	Paired  bool
}
