package rules

// Squares are numbered a1=0, b1=1 ... h8=63, the layout dragontoothmg uses.

// SquareName returns the algebraic name of sq, or "" when out of range.
func SquareName(sq uint8) string {
	if sq > 63 {
		return ""
	}
	return string([]byte{'a' + sq%8, '1' + sq/8})
}

// ParseSquare is the inverse of SquareName.
func ParseSquare(s string) (uint8, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, false
	}
	return (s[1]-'1')*8 + (s[0] - 'a'), true
}

func fileOf(sq uint8) uint8 { return sq % 8 }
