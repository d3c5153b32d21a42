// Package termview draws game frames as half-block text for terminals and
// SSH sessions.
package termview

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
)

// Half-block glyphs give each terminal cell two vertical sub-pixels.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// maxChunkSize keeps single writes under a typical MTU for smooth SSH output.
const maxChunkSize = 1400

// Layer selects the glyph set a filled pixel is drawn with.
type Layer uint8

const (
	LayerEmpty Layer = iota
	LayerPipe
	LayerBird
	LayerVeteran // Bird whose controller survived earlier generations
)

// Canvas is a drawing buffer with 2x vertical resolution using half-block
// characters, scaled from playfield coordinates to terminal cells.
type Canvas struct {
	cols, rows int
	subRows    int
	pixels     []Layer // [y*cols + x]

	scaleX, scaleY float64
	logicalW       float64
	logicalH       float64
}

// NewCanvas creates a canvas of cols x rows cells covering a logicalW x
// logicalH playfield.
func NewCanvas(cols, rows int, logicalW, logicalH float64) *Canvas {
	c := &Canvas{logicalW: logicalW, logicalH: logicalH}
	c.Resize(cols, rows)
	return c
}

// Resize updates the terminal size while keeping the logical size.
func (c *Canvas) Resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if cols != c.cols || rows != c.rows {
		c.cols, c.rows = cols, rows
		c.subRows = rows * 2
		c.pixels = make([]Layer, c.subRows*cols)
	}
	c.scaleX = float64(c.cols) / c.logicalW
	c.scaleY = float64(c.subRows) / c.logicalH
}

// Cols returns the terminal column count.
func (c *Canvas) Cols() int { return c.cols }

// Rows returns the terminal row count.
func (c *Canvas) Rows() int { return c.rows }

// Clear resets all pixels.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// FillRect fills a logical rectangle, clipped to the canvas. Higher layers
// are never overwritten by lower ones.
func (c *Canvas) FillRect(left, top, right, bottom float64, layer Layer) {
	x0 := max(int(math.Floor(left*c.scaleX)), 0)
	x1 := min(int(math.Ceil(right*c.scaleX)), c.cols)
	y0 := max(int(math.Floor(top*c.scaleY)), 0)
	y1 := min(int(math.Ceil(bottom*c.scaleY)), c.subRows)

	for y := y0; y < y1; y++ {
		row := c.pixels[y*c.cols:]
		for x := x0; x < x1; x++ {
			if row[x] < layer {
				row[x] = layer
			}
		}
	}
}

// At returns the layer of one sub-pixel.
func (c *Canvas) At(x, y int) Layer {
	if x < 0 || x >= c.cols || y < 0 || y >= c.subRows {
		return LayerEmpty
	}
	return c.pixels[y*c.cols+x]
}

// LogicalToCell converts logical coordinates to a 1-based terminal cell.
func (c *Canvas) LogicalToCell(x, y float64) (col, row int) {
	px := int(math.Round(x * c.scaleX))
	py := int(math.Round(y * c.scaleY))
	return px + 1, py/2 + 1
}

// ANSI foreground colors per layer.
var layerColor = [...]string{
	LayerEmpty:   "\033[0m",
	LayerPipe:    "\033[32m",
	LayerBird:    "\033[33m",
	LayerVeteran: "\033[35m",
}

// Render writes every row of the canvas below rowOffset terminal rows,
// overwriting the previous frame.
func (c *Canvas) Render(cw *ChunkWriter, rowOffset int) {
	var cur Layer
	cw.WriteString(layerColor[LayerEmpty])
	for row := 0; row < c.rows; row++ {
		cw.MoveCursor(1, rowOffset+row+1)
		top := c.pixels[row*2*c.cols:]
		bottom := c.pixels[(row*2+1)*c.cols:]
		for col := 0; col < c.cols; col++ {
			t, b := top[col], bottom[col]
			layer := max(t, b)
			if layer != LayerEmpty && layer != cur {
				// Color only changes on filled cells; blanks render the same in any color
				cw.WriteString(layerColor[layer])
				cur = layer
			}
			switch {
			case t != LayerEmpty && b != LayerEmpty:
				cw.WriteRune(BlockFull)
			case t != LayerEmpty:
				cw.WriteRune(BlockUpperHalf)
			case b != LayerEmpty:
				cw.WriteRune(BlockLowerHalf)
			default:
				cw.WriteByte(' ')
			}
		}
	}
	cw.WriteString(layerColor[LayerEmpty])
}

// ChunkWriter accumulates terminal output and writes it in MTU-sized chunks.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer
	numBuf [20]byte
}

// NewChunkWriter creates a ChunkWriter that writes to w.
func NewChunkWriter(w io.Writer) *ChunkWriter {
	return &ChunkWriter{bufw: bufio.NewWriterSize(w, 8192)}
}

// MoveCursor appends an ANSI cursor position sequence (1-based).
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col), 10))
	cw.buf.WriteByte('H')
}

// WriteString appends a string.
func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes a string at a 1-based position.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// WriteByte appends a byte.
func (cw *ChunkWriter) WriteByte(b byte) error {
	return cw.buf.WriteByte(b)
}

// WriteRune appends a rune.
func (cw *ChunkWriter) WriteRune(r rune) {
	cw.buf.WriteRune(r)
}

// Pending returns the buffered text without flushing it.
func (cw *ChunkWriter) Pending() string {
	return cw.buf.String()
}

// Flush writes the accumulated buffer in chunks and resets it.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := cw.bufw.WriteString(chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return cw.bufw.Flush()
}
