package portal

import (
	"fmt"
	"regexp"
	"strings"
)

// Matrix is a cell of the matrix authentication grid, a column A-J and a row 1-7.
type Matrix uint8

const (
	A1 Matrix = iota
	A2
	A3
	A4
	A5
	A6
	A7

	B1
	B2
	B3
	B4
	B5
	B6
	B7

	C1
	C2
	C3
	C4
	C5
	C6
	C7

	D1
	D2
	D3
	D4
	D5
	D6
	D7

	E1
	E2
	E3
	E4
	E5
	E6
	E7

	F1
	F2
	F3
	F4
	F5
	F6
	F7

	G1
	G2
	G3
	G4
	G5
	G6
	G7

	H1
	H2
	H3
	H4
	H5
	H6
	H7

	I1
	I2
	I3
	I4
	I5
	I6
	I7

	J1
	J2
	J3
	J4
	J5
	J6
	J7
)

const (
	matrixColumns = 10
	matrixRows    = 7
	matrixCount   = matrixColumns * matrixRows
)

// AllMatrices returns every cell in column-major order (A1, A2, ... J7).
func AllMatrices() []Matrix {
	out := make([]Matrix, matrixCount)
	for i := range out {
		out[i] = Matrix(i)
	}
	return out
}

func newMatrix(column byte, row int) (Matrix, bool) {
	if column < 'A' || column > 'J' || row < 1 || row > matrixRows {
		return 0, false
	}
	return Matrix(int(column-'A')*matrixRows + row - 1), true
}

func (m Matrix) Valid() bool {
	return m < matrixCount
}

// Column returns the letter of the cell, 'A' through 'J'.
func (m Matrix) Column() byte {
	return 'A' + byte(m)/matrixRows
}

// Row returns the digit of the cell, 1 through 7.
func (m Matrix) Row() int {
	return int(m)%matrixRows + 1
}

func (m Matrix) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Matrix(%d)", uint8(m))
	}
	return fmt.Sprintf("%c%d", m.Column(), m.Row())
}

// ParseMatrix parses the "D2" form (case-insensitive, surrounding whitespace ignored).
func ParseMatrix(s string) (Matrix, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid matrix cell %q", s)
	}
	m, ok := newMatrix(s[0], int(s[1]-'0'))
	if !ok {
		return 0, fmt.Errorf("invalid matrix cell %q", s)
	}
	return m, nil
}

func (m Matrix) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid matrix cell %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Matrix) UnmarshalText(text []byte) error {
	parsed, err := ParseMatrix(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMatrixSecrets converts a cell -> secret map keyed by the "D2" form,
// as it appears in configuration files.
func ParseMatrixSecrets(raw map[string]string) (map[Matrix]string, error) {
	out := make(map[Matrix]string, len(raw))
	for key, secret := range raw {
		m, err := ParseMatrix(key)
		if err != nil {
			return nil, err
		}
		out[m] = secret
	}
	return out, nil
}

// the challenge is rendered as "[D,2]" somewhere in the page text
var matrixRegex = regexp.MustCompile(`\[([A-J]),([1-7])\]`)

// ExtractMatrices returns every challenged cell in the order it appears in
// the page. Order matters since the n-th cell is answered by the n-th
// password field.
func ExtractMatrices(body string) ([]Matrix, error) {
	groups := matrixRegex.FindAllStringSubmatch(body, -1)
	if len(groups) == 0 {
		return nil, ErrFailedMatrixParse
	}

	out := make([]Matrix, 0, len(groups))
	for _, g := range groups {
		m, ok := newMatrix(g[1][0], int(g[2][0]-'0'))
		if !ok {
			// unreachable, the regex only admits valid cells
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ResolveMatrices looks up the secret for every challenged cell, cells
// without a secret resolve to "".
func ResolveMatrices(matrices []Matrix, secrets map[Matrix]string) []string {
	out := make([]string, len(matrices))
	for i, m := range matrices {
		out[i] = secrets[m]
	}
	return out
}
