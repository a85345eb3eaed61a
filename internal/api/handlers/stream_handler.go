package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vocollect/vocollect/internal/services"
	"github.com/vocollect/vocollect/internal/turn"
	"github.com/vocollect/vocollect/internal/utils"
)

// StreamHandler owns the call audio websocket the voice provider bridges
// into, plus a monitoring socket that forwards per-call status events.
type StreamHandler struct {
	calls    services.CallService
	redis    *redis.Client
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewStreamHandler(calls services.CallService, rdb *redis.Client, log *logrus.Logger) *StreamHandler {
	return &StreamHandler{
		calls: calls,
		redis: rdb,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // provider connects cross-origin
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) WritePCM(pcm []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.BinaryMessage, pcm)
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// CallAudio handles the bidirectional audio stream for one call. Inbound
// binary frames are caller audio; outbound binary frames are synthesized
// speech. A read failure means the transport dropped, which finalizes the
// call unless a farewell or provider event got there first.
func (s *StreamHandler) CallAudio(c *gin.Context) {
	callUUID := c.Param("call_uuid")
	if callUUID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "StreamHandler.CallAudio", "missing call_uuid", nil))
		return
	}

	if _, ok := s.calls.Registry().Get(callUUID); !ok {
		writeError(c, utils.E(utils.CodeNotFound, "StreamHandler.CallAudio", "no active call for uuid", nil))
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := s.log.WithField("call_uuid", callUUID)
	sink := &wsConn{c: conn}

	coord, err := s.calls.AttachStream(c.Request.Context(), callUUID, sink)
	if err != nil {
		log.WithError(err).Error("failed to attach audio stream")
		return
	}
	log.Info("audio stream attached")

	ctx := c.Request.Context()
	for {
		msgType, data, rerr := conn.ReadMessage()
		if rerr != nil {
			break
		}
		// The provider sends occasional text frames (connect metadata);
		// only binary frames carry audio.
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := coord.HandleFrame(ctx, data); err != nil {
			log.WithError(err).Warn("frame handling failed")
		}
		if coord.State() == turn.StateTerminated {
			break
		}
	}

	s.calls.Finalize(context.Background(), callUUID, turn.ReasonDisconnect)
	log.Info("audio stream closed")
}

// CallEvents streams per-call status updates (analysis progress, completion)
// to an operator dashboard over a websocket.
func (s *StreamHandler) CallEvents(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	callUUID := c.Param("call_uuid")
	if callUUID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "StreamHandler.CallEvents", "missing call_uuid", nil))
		return
	}
	if call, ok := s.calls.Registry().Get(callUUID); ok && call.Session.TenantID != tenantID {
		writeError(c, utils.E(utils.CodeForbidden, "StreamHandler.CallEvents", "forbidden", nil))
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := s.redis.Subscribe(ctx, "call:"+callUUID+":status")
	defer pubsub.Close()

	for {
		m, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return
		}
		if werr := wc.writeText([]byte(m.Payload)); werr != nil {
			return
		}
	}
}
