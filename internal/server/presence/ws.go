package presence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

const (
	wsWriteTimeout  = 10 * time.Second
	wsUpdateTimeout = 5 * time.Second
	wsMaxMessage    = 64 << 10
)

// WSHandler upgrades requests to WebSocket presence sessions.
type WSHandler struct {
	hub *Hub
	log logging.Logger
}

func NewWSHandler(hub *Hub, log logging.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log.With("module", "presence-ws")}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{conn: conn}
	sess := h.hub.Connect(c)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(c, sess)
	}()

	err = h.readLoop(c)
	var closed wsutil.ClosedError
	if err != nil && !errors.As(err, &closed) && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		h.log.Info(context.Background(), "websocket session ended", "error", err)
	}

	h.hub.Disconnect(sess)
	_ = c.Close()
	wg.Wait()
}

func (h *WSHandler) writeLoop(c *wsConn, sess *Session) {
	for set := range sess.Updates() {
		body, err := json.Marshal(models.PresenceMessage{Type: models.PresenceTypeDoneSet, PatientIDs: set})
		if err != nil {
			h.log.Error(context.Background(), "encode presence message", "error", err)
			continue
		}

		var buf bytes.Buffer
		if err := wsutil.WriteServerMessage(&buf, ws.OpText, body); err != nil {
			continue
		}
		if err := c.write(buf.Bytes()); err != nil {
			_ = c.Close()
			return
		}
	}
}

// readLoop handles client frames until the connection fails or closes.
func (h *WSHandler) readLoop(c *wsConn) error {
	var ctlBuf bytes.Buffer
	ctl := wsutil.ControlFrameHandler(&ctlBuf, ws.StateServerSide)
	handleControl := func(hdr ws.Header, r io.Reader) error {
		err := ctl(hdr, r)
		if ctlBuf.Len() > 0 {
			if werr := c.write(ctlBuf.Bytes()); werr != nil && err == nil {
				err = werr
			}
			ctlBuf.Reset()
		}
		return err
	}

	rd := &wsutil.Reader{
		Source:         c.conn,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		MaxFrameSize:   wsMaxMessage,
		OnIntermediate: handleControl,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return err
		}
		if hdr.OpCode.IsControl() {
			if err := handleControl(hdr, rd); err != nil {
				return err
			}
			continue
		}
		if hdr.OpCode != ws.OpText {
			if err := rd.Discard(); err != nil {
				return err
			}
			continue
		}

		data, err := io.ReadAll(rd)
		if err != nil {
			return err
		}
		h.handleMessage(data)
	}
}

func (h *WSHandler) handleMessage(data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), wsUpdateTimeout)
	defer cancel()

	var msg models.PresenceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.Warn(ctx, "malformed presence message", "error", err)
		return
	}
	if msg.Type != models.PresenceTypeUpdateDoneSet {
		h.log.Warn(ctx, "unexpected presence message", "type", msg.Type)
		return
	}
	if err := h.hub.UpdateDoneSet(ctx, msg.PatientIDs); err != nil {
		h.log.Error(ctx, "presence update", "error", err)
	}
}

// wsConn serializes whole frames onto the connection.
type wsConn struct {
	conn net.Conn
	mu   sync.Mutex
	once sync.Once
}

func (c *wsConn) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_, err := c.conn.Write(frame)
	return err
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() { err = c.conn.Close() })
	return err
}
