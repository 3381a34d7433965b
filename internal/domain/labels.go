package domain

import "fmt"

// SeatLabels produces the labels for a freshly provisioned section, in rows
// of ten: A1..A10, B1..B10 and so on. Past row Z the letters double up
// (AA, AB, ...), so sections larger than 260 seats stay well-formed.
func SeatLabels(totalSeats int) []string {
	labels := make([]string, 0, totalSeats)
	for row := 0; row*10 < totalSeats; row++ {
		seatsInRow := totalSeats - row*10
		if seatsInRow > 10 {
			seatsInRow = 10
		}
		for seat := 1; seat <= seatsInRow; seat++ {
			labels = append(labels, fmt.Sprintf("%s%d", rowLabel(row), seat))
		}
	}
	return labels
}

func rowLabel(row int) string {
	label := ""
	for row >= 0 {
		label = string(rune('A'+row%26)) + label
		row = row/26 - 1
	}
	return label
}
