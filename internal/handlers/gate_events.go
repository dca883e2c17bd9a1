package handlers

import (
	"net/http"
	"sync"

	"launchcontrol/internal/handlers/business"
	"launchcontrol/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Operator-facing push feed of finalization events. Browser origin checks
// are handled by the CORS layer; the upgrader accepts any origin here.
var gateFeedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var (
	gateFeedMu      sync.Mutex
	gateFeedClients = make(map[*websocket.Conn]chan business.GateEvent)
)

// InitGateEventFeed wires the business event stream into the websocket
// feed and, when a publisher is configured, the notification queue.
func InitGateEventFeed(pub *config.Publisher) {
	business.SubscribeGateEvents(func(ev business.GateEvent) {
		broadcastGateEvent(ev)
		if pub != nil {
			if err := pub.Publish(config.QueueGateNotifications, ev); err != nil {
				log.Warnf("Failed to publish gate notification: %v", err)
			}
		}
	})
}

func broadcastGateEvent(ev business.GateEvent) {
	gateFeedMu.Lock()
	defer gateFeedMu.Unlock()

	for conn, ch := range gateFeedClients {
		select {
		case ch <- ev:
		default:
			// slow consumer, drop it
			close(ch)
			delete(gateFeedClients, conn)
		}
	}
}

// GateEventsFeed upgrades the connection and streams finalization events
// until the client disconnects
func GateEventsFeed(c *gin.Context) {
	conn, err := gateFeedUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade gate feed connection: %v", err)
		return
	}

	ch := make(chan business.GateEvent, 16)
	gateFeedMu.Lock()
	gateFeedClients[conn] = ch
	gateFeedMu.Unlock()

	go func() {
		defer conn.Close()
		for ev := range ch {
			if err := conn.WriteJSON(ev); err != nil {
				break
			}
		}
	}()

	// reader loop: discard client messages, detect disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	gateFeedMu.Lock()
	if ch, ok := gateFeedClients[conn]; ok {
		close(ch)
		delete(gateFeedClients, conn)
	}
	gateFeedMu.Unlock()
	conn.Close()
}
