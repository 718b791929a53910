package display

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

const (
	// IconSize is the edge of every icon in pixels.
	IconSize = 30

	iconCells = 15
	iconScale = IconSize / iconCells
)

// Patterns are drawn on a 15x15 grid and doubled to 30x30. '#' is ink,
// '.' is transparent.
const (
	busPattern = `
...............
..###########..
.#...........#.
.#.##.##.##..#.
.#.##.##.##..#.
.#...........#.
.#############.
.#...........#.
.#...........#.
.#############.
..##.......##..
.#..#.....#..#.
..##.......##..
...............
...............
`
	schoolPattern = `
......#........
......###......
......#........
......#........
.....###.......
....#####......
...#######.....
..#########....
.###########...
..#.......#....
..#.##.##.#....
..#.##.##.#....
..#...#...#....
..#...#...#....
..#########....
`
	workPattern = `
...............
...............
.....#####.....
.....#...#.....
..###########..
..#.........#..
..#.........#..
..#####.#####..
..#...###...#..
..#.........#..
..#.........#..
..###########..
...............
...............
...............
`
	batteryPattern0 = `
...............
...............
...............
##############.
#............#.
#............#.
#............##
#............##
#............##
#............#.
#............#.
##############.
...............
...............
...............
`
	batteryPattern1 = `
...............
...............
...............
##############.
#............#.
#.##.........#.
#.##.........##
#.##.........##
#.##.........##
#.##.........#.
#............#.
##############.
...............
...............
...............
`
	batteryPattern2 = `
...............
...............
...............
##############.
#............#.
#.##.##......#.
#.##.##......##
#.##.##......##
#.##.##......##
#.##.##......#.
#............#.
##############.
...............
...............
...............
`
	batteryPattern3 = `
...............
...............
...............
##############.
#............#.
#.##.##.##...#.
#.##.##.##...##
#.##.##.##...##
#.##.##.##...##
#.##.##.##...#.
#............#.
##############.
...............
...............
...............
`
	batteryPattern4 = `
...............
...............
...............
##############.
#............#.
#.##.##.##.###.
#.##.##.##.####
#.##.##.##.####
#.##.##.##.####
#.##.##.##.###.
#............#.
##############.
...............
...............
...............
`
)

var iconPalette = color.Palette{color.Transparent, color.Black}

type assets struct {
	// battery is indexed by level, 0 empty to 4 full.
	battery [5]image.Image
	school  image.Image
	work    image.Image
	bus     image.Image
}

func loadAssets() (*assets, error) {
	a := &assets{}
	var err error
	for i, p := range []string{batteryPattern0, batteryPattern1, batteryPattern2, batteryPattern3, batteryPattern4} {
		if a.battery[i], err = parseIcon(p); err != nil {
			return nil, fmt.Errorf("battery icon %d: %w", i, err)
		}
	}
	if a.school, err = parseIcon(schoolPattern); err != nil {
		return nil, fmt.Errorf("school icon: %w", err)
	}
	if a.work, err = parseIcon(workPattern); err != nil {
		return nil, fmt.Errorf("work icon: %w", err)
	}
	if a.bus, err = parseIcon(busPattern); err != nil {
		return nil, fmt.Errorf("bus icon: %w", err)
	}
	return a, nil
}

// parseIcon turns a 15x15 pattern into a 30x30 paletted image.
func parseIcon(pattern string) (*image.Paletted, error) {
	rows := strings.Split(strings.Trim(pattern, "\n"), "\n")
	if len(rows) != iconCells {
		return nil, fmt.Errorf("pattern has %d rows, want %d", len(rows), iconCells)
	}

	img := image.NewPaletted(image.Rect(0, 0, IconSize, IconSize), iconPalette)
	for y, row := range rows {
		if len(row) != iconCells {
			return nil, fmt.Errorf("pattern row %d has %d cells, want %d", y, len(row), iconCells)
		}
		for x, cell := range row {
			var idx uint8
			switch cell {
			case '#':
				idx = 1
			case '.':
			default:
				return nil, fmt.Errorf("pattern row %d: unexpected %q", y, cell)
			}
			for dy := 0; dy < iconScale; dy++ {
				for dx := 0; dx < iconScale; dx++ {
					img.SetColorIndex(x*iconScale+dx, y*iconScale+dy, idx)
				}
			}
		}
	}
	return img, nil
}
