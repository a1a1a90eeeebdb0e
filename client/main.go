package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeHeartbeat   = 1
	MsgTypeJoinQueue   = 101
	MsgTypeLeaveQueue  = 102
	MsgTypeQueueStatus = 103
	MsgTypeJoinGame    = 201
	MsgTypeMove        = 203
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, payload interface{}) {
	data, _ := json.Marshal(payload)
	if err := send(c, msgID, data); err != nil {
		log.Println("Write error:", err)
		return
	}
	log.Printf("-> SENT (ID: %d): %s", msgID, string(data))
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	playerID := "demo-player"
	if len(os.Args) > 1 {
		playerID = os.Args[1]
	}
	gameID := ""

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	// Heartbeat loop
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				send(c, MsgTypeHeartbeat, []byte{})
			}
		}
	}()

	log.Println("Commands: queue [ranked] | status | leave | join <game-id> | place <pos> | move <from> <to> | forfeit")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			switch fields[0] {
			case "queue":
				ranked := len(fields) > 1 && fields[1] == "ranked"
				sendJSON(c, MsgTypeJoinQueue, map[string]interface{}{
					"player_id": playerID,
					"preferences": map[string]interface{}{
						"ranked":    ranked,
						"game_mode": "standard",
					},
				})
			case "status":
				send(c, MsgTypeQueueStatus, []byte{})
			case "leave":
				send(c, MsgTypeLeaveQueue, []byte{})
			case "join":
				if len(fields) < 2 {
					log.Println("Usage: join <game-id>")
					continue
				}
				gameID = fields[1]
				sendJSON(c, MsgTypeJoinGame, map[string]string{
					"game_id":   gameID,
					"player_id": playerID,
				})
			case "place":
				if len(fields) < 2 {
					log.Println("Usage: place <pos>")
					continue
				}
				pos, _ := strconv.Atoi(fields[1])
				sendJSON(c, MsgTypeMove, map[string]interface{}{
					"game_id": gameID,
					"move":    map[string]interface{}{"type": "place", "position": pos},
				})
			case "move":
				if len(fields) < 3 {
					log.Println("Usage: move <from> <to>")
					continue
				}
				from, _ := strconv.Atoi(fields[1])
				to, _ := strconv.Atoi(fields[2])
				sendJSON(c, MsgTypeMove, map[string]interface{}{
					"game_id": gameID,
					"move":    map[string]interface{}{"type": "move", "from": from, "to": to},
				})
			case "forfeit":
				sendJSON(c, MsgTypeMove, map[string]interface{}{
					"game_id": gameID,
					"move":    map[string]interface{}{"type": "forfeit"},
				})
			default:
				log.Printf("Unknown command %q", fields[0])
			}
		}
	}
}
