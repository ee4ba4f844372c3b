/*
Copyright © 2024 the fishnet authors.
This file is part of fishnet.

fishnet is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fishnet is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fishnet.  If not, see <http://www.gnu.org/licenses/>.
*/

package fishnet

import (
	"math"
	"strconv"
	"strings"
)

// ParsePageName converts a fishnet page name such as "AC45" into
// grid coordinates. Letters are read as a base-26 number with
// A=1 through Z=26 (case insensitive) to give the row, and digits
// are read as a base-10 number to give the column. Letters and
// digits are filtered out of the name independently, so their
// relative positions do not matter, and any other characters are
// ignored. A name with no letters has row 0 and a name with no
// digits has column 0. Values too large for an int saturate at
// math.MaxInt; ParsePageName never fails.
func ParsePageName(name string) (row, col int) {
	var digits strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			row = letterStep(row, int(r-'A')+1)
		case r >= 'a' && r <= 'z':
			row = letterStep(row, int(r-'a')+1)
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return row, 0
	}
	c, err := strconv.Atoi(digits.String())
	if err != nil {
		// The only possible failure is overflow.
		return row, math.MaxInt
	}
	return row, c
}

// letterStep appends one base-26 letter to row, saturating at
// math.MaxInt.
func letterStep(row, v int) int {
	if row > (math.MaxInt-v)/26 {
		return math.MaxInt
	}
	return row*26 + v
}

// FormatPageName is the inverse of ParsePageName for row >= 1 and
// col >= 0.
func FormatPageName(row, col int) string {
	var letters []byte
	for row > 0 {
		row--
		letters = append(letters, byte('A'+row%26))
		row /= 26
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters) + strconv.Itoa(col)
}
