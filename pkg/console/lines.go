package console

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// LineReader reads command lines.
type LineReader interface {
	ReadLine() (string, error)
}

// LineWriter writes response lines.
type LineWriter interface {
	WriteLines([]string) error
}

// LineReadWriter reads command lines and writes responses.
type LineReadWriter interface {
	LineReader
	LineWriter
}

// StreamLines implements LineReadWriter on a byte stream with newline
// terminated lines.
type StreamLines struct {
	r *bufio.Reader
	w io.Writer
}

// NewStreamLines creates StreamLines.
func NewStreamLines(r io.Reader, w io.Writer) *StreamLines {
	return &StreamLines{r: bufio.NewReader(r), w: w}
}

// ReadLine implements LineReader. A final line without newline is
// returned before io.EOF.
func (s *StreamLines) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// WriteLines implements LineWriter.
func (s *StreamLines) WriteLines(lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(s.w, sb.String())
	return err
}

// WebsocketLines implements LineReadWriter on a websocket connection: one
// text frame per command, one frame with newline joined lines per reply.
type WebsocketLines websocket.Conn

// NewWebsocketLines wraps websocket.Conn.
func NewWebsocketLines(conn *websocket.Conn) *WebsocketLines {
	return (*WebsocketLines)(conn)
}

// ReadLine implements LineReader.
func (w *WebsocketLines) ReadLine() (line string, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(w), &line)
	return
}

// WriteLines implements LineWriter.
func (w *WebsocketLines) WriteLines(lines []string) error {
	return websocket.Message.Send((*websocket.Conn)(w), strings.Join(lines, "\n"))
}

// Serve submits every line read from rw, blank ones included, to the loop
// in ctx and writes the replies back, until rw fails or ctx is done. io.EOF ends it cleanly.
func Serve(ctx context.Context, source string, rw LineReadWriter) error {
	for {
		line, err := rw.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		glog.V(2).Infof("%s> %s", source, line)
		reply, err := Submit(ctx, source, line)
		if err != nil {
			return err
		}
		if err := rw.WriteLines(reply); err != nil {
			return err
		}
	}
}
