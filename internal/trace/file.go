package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"

	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// File reads or writes a trace as newline-delimited JSON NetPacket
// records, one per line, in injection order.
type File struct {
	r *bufio.Scanner
	w io.Writer
}

// NewFileReader wraps r for reading one msg.NetPacket per line.
func NewFileReader(r io.Reader) *File {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &File{r: scanner}
}

// NewFileWriter wraps w for appending one msg.NetPacket per line.
func NewFileWriter(w io.Writer) *File {
	return &File{w: w}
}

// ErrNotAReader indicates Read was called on a File built with
// NewFileWriter.
var ErrNotAReader = errors.New("trace: file was not opened for reading")

// ErrNotAWriter indicates Write was called on a File built with
// NewFileReader.
var ErrNotAWriter = errors.New("trace: file was not opened for writing")

// Read returns the next packet in the file. io.EOF is returned once the
// file is exhausted.
func (f *File) Read() (msg.NetPacket, error) {
	if f.r == nil {
		return msg.NetPacket{}, ErrNotAReader
	}
	if !f.r.Scan() {
		if err := f.r.Err(); err != nil {
			return msg.NetPacket{}, err
		}
		return msg.NetPacket{}, io.EOF
	}

	var pkt msg.NetPacket
	if err := json.Unmarshal(f.r.Bytes(), &pkt); err != nil {
		return msg.NetPacket{}, err
	}
	return pkt, nil
}

// Write appends one packet record.
func (f *File) Write(pkt msg.NetPacket) error {
	if f.w == nil {
		return ErrNotAWriter
	}
	line, err := json.Marshal(pkt)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = f.w.Write(line)
	return err
}

// ReadAll drains every remaining record from f.
func (f *File) ReadAll() ([]msg.NetPacket, error) {
	var out []msg.NetPacket
	for {
		pkt, err := f.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pkt)
	}
}
