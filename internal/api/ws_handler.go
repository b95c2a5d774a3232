package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"resumepager/internal/auth"
	"resumepager/internal/database"
	"resumepager/internal/preview"
	"resumepager/internal/resume"
	"resumepager/internal/tasks"
)

// WsHandler 负责 WebSocket 鉴权、实时分页预览与导出通知转发。
type WsHandler struct {
	db             *gorm.DB
	tokens         *auth.TokenService
	paginator      Paginator
	subscriber     Subscriber
	debounce       time.Duration
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。subscriber 为 nil 时不转发导出通知。
func NewWsHandler(
	db *gorm.DB,
	tokens *auth.TokenService,
	paginator Paginator,
	subscriber Subscriber,
	debounce time.Duration,
	logger *slog.Logger,
	allowedOrigins []string,
) *WsHandler {
	h := &WsHandler{
		db:             db,
		tokens:         tokens,
		paginator:      paginator,
		subscriber:     subscriber,
		debounce:       debounce,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type wsEditMessage struct {
	Type     string       `json:"type"`
	Data     *resume.Data `json:"data"`
	DemoMode bool         `json:"demo_mode"`
}

type wsLayoutMessage struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
	layoutResponse
}

type wsErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type wsGrant struct {
	resumeID uint
	data     resume.Data
	demo     bool
}

// wsConn 串行化写操作：预览提交、通知转发与心跳来自不同 goroutine。
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) writeText(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
}

// HandleConnection 负责升级连接并启动读写循环。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	out := &wsConn{conn: conn}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(
		slog.String("client_ip", c.ClientIP()),
	)

	grantCh := make(chan wsGrant, 1)
	edits := make(chan wsEditMessage, 8)
	errCh := make(chan error, 2)

	go h.readLoop(ctx, out, grantCh, edits, errCh, cancel, baseLog)

	var grant wsGrant
	select {
	case <-ctx.Done():
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket authentication failed", slog.Any("error", err))
		}
		return
	case grant = <-grantCh:
	}

	log := baseLog.With(slog.Uint64("resume_id", uint64(grant.resumeID)))

	scheduler := preview.NewScheduler(h.paginator, h.debounce, func(res preview.Result) {
		msg := wsLayoutMessage{
			Type:           "layout",
			Generation:     res.Generation,
			layoutResponse: newLayoutResponse(res.Layout, 0),
		}
		if err := out.writeJSON(msg); err != nil {
			log.Warn("write layout failed", slog.Any("error", err))
			cancel()
		}
	}, log)
	defer scheduler.Stop()
	scheduler.Submit(grant.data, grant.demo)

	if h.subscriber != nil {
		go h.subscribeLoop(ctx, out, grant.resumeID, errCh, cancel, log)
	} else {
		go h.pingLoop(ctx, out, errCh, cancel)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("websocket connection closed")
			return
		case err := <-errCh:
			if err != nil {
				log.Info("websocket connection closed", slog.Any("error", err))
			} else {
				log.Info("websocket connection closed")
			}
			return
		case edit := <-edits:
			if err := edit.Data.Validate(); err != nil {
				if werr := out.writeJSON(wsErrorMessage{Type: "error", Error: err.Error()}); werr != nil {
					return
				}
				continue
			}
			scheduler.Submit(*edit.Data, edit.DemoMode)
		}
	}
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	out *wsConn,
	grantCh chan<- wsGrant,
	edits chan<- wsEditMessage,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	authenticated := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := out.conn.ReadMessage()
		if err != nil {
			writeClose(out, websocket.CloseAbnormalClosure, "read error")
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}

		if !authenticated {
			grant, err := h.authenticate(ctx, message)
			if err != nil {
				writeClose(out, websocket.ClosePolicyViolation, "unauthorized")
				errCh <- err
				cancel()
				return
			}
			authenticated = true
			grantCh <- grant
			log.Info("websocket authenticated", slog.Uint64("resume_id", uint64(grant.resumeID)))
			continue
		}

		var edit wsEditMessage
		if err := json.Unmarshal(message, &edit); err != nil || edit.Type != "edit" || edit.Data == nil {
			_ = out.writeJSON(wsErrorMessage{Type: "error", Error: "expected an edit message with data"})
			continue
		}
		select {
		case edits <- edit:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WsHandler) authenticate(ctx context.Context, message []byte) (wsGrant, error) {
	var authMsg wsAuthMessage
	if err := json.Unmarshal(message, &authMsg); err != nil {
		return wsGrant{}, fmt.Errorf("decode auth payload: %w", err)
	}
	if authMsg.Type != "auth" || authMsg.Token == "" {
		return wsGrant{}, errors.New("invalid auth message")
	}

	claims, err := h.tokens.Validate(authMsg.Token)
	if err != nil {
		return wsGrant{}, fmt.Errorf("validate token: %w", err)
	}

	var row database.Resume
	if err := h.db.WithContext(ctx).First(&row, claims.ResumeID).Error; err != nil {
		return wsGrant{}, fmt.Errorf("load resume %d: %w", claims.ResumeID, err)
	}
	if row.EditTokenID != claims.ID {
		return wsGrant{}, errors.New("edit token has been rotated")
	}
	data, err := row.Data()
	if err != nil {
		return wsGrant{}, err
	}
	return wsGrant{resumeID: row.ID, data: data, demo: row.DemoMode}, nil
}

func writeClose(out *wsConn, code int, text string) {
	out.mu.Lock()
	defer out.mu.Unlock()
	deadline := time.Now().Add(5 * time.Second)
	_ = out.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (h *WsHandler) subscribeLoop(
	ctx context.Context,
	out *wsConn,
	resumeID uint,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	channel := tasks.NotifyChannel(resumeID)
	pubsub := h.subscriber.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Info("subscribed to redis channel", slog.String("channel", channel))

	ch := pubsub.Channel()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				errCh <- fmt.Errorf("pubsub channel closed")
				cancel()
				return
			}

			log.Info("forwarding message to client", slog.String("channel", channel))
			if err := out.writeText([]byte(msg.Payload)); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				cancel()
				return
			}
		case <-ticker.C:
			if err := out.ping(); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				cancel()
				return
			}
		}
	}
}

func (h *WsHandler) pingLoop(ctx context.Context, out *wsConn, errCh chan<- error, cancel context.CancelFunc) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				cancel()
				return
			}
		}
	}
}
