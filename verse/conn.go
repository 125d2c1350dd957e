package verse

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"io"

	"github.com/gorilla/websocket"

	"github.com/teranos/graphshell/errors"
)

// wsConn adapts *websocket.Conn to the verse.Conn interface. Each SyncUnit
// is JSON-marshaled then flate-compressed into a single binary frame,
// matching the "serialise, then compress" wire contract; unitMaxBytes caps
// the compressed size.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(c *websocket.Conn) Conn {
	return wsConn{conn: c}
}

func (w wsConn) WriteJSON(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal sync unit")
	}

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, 3)
	if err != nil {
		return errors.Wrap(err, "create compressor")
	}
	if _, err := fw.Write(raw); err != nil {
		return errors.Wrap(err, "compress sync unit")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, "flush compressor")
	}
	if buf.Len() > unitMaxBytes {
		return errors.Newf("sync unit exceeds %d byte cap: %d bytes", unitMaxBytes, buf.Len())
	}

	return w.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
}

func (w wsConn) ReadJSON(v interface{}) error {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return errors.Wrap(err, "read sync frame")
	}
	if len(data) > unitMaxBytes {
		return errors.Newf("sync unit exceeds %d byte cap: %d bytes", unitMaxBytes, len(data))
	}

	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	raw, err := io.ReadAll(fr)
	if err != nil {
		return errors.Wrap(err, "decompress sync unit")
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "unmarshal sync unit")
	}
	return nil
}

func (w wsConn) Close() error { return w.conn.Close() }
