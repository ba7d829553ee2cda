package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"

	"social-chat/auth"
	"social-chat/domain"
	"social-chat/projection"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:5000"`
	Token         string `env:"CHAT_TOKEN,required=true"`
}

type inboundFrame struct {
	Type    string          `json:"type"`
	Message *messagePayload `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type outboundFrame struct {
	Type    string     `json:"type"`
	Content string     `json:"content,omitempty"`
	Group   *uuid.UUID `json:"group,omitempty"`
}

type messagePayload struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   string     `json:"sender_id"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	GroupID    *uuid.UUID `json:"group_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the websocket client lifecycle: configuration loading, history
// backfill, the reception loop, and the stdin send loop. The local timeline
// reconciles the optimistic echo of each send with the server-confirmed
// record arriving on the "sent" ack or the live stream.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// The display identity is read out of the token so the timeline can tell
	// our own messages apart from everyone else's.
	claims, err := auth.ValidateToken(config.Token)
	if err != nil {
		return exitConfig, fmt.Errorf("bad token: %w", err)
	}
	self := domain.Identity{ID: claims.UserID, DisplayName: claims.DisplayName}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	header := http.Header{"Authorization": []string{"Bearer " + config.Token}}
	wsURL := fmt.Sprintf("ws://%s/ws", config.ServerAddress)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		color.Gray.Println("Closing connection...")
		_ = conn.Close()
	}()

	timeline := projection.NewTimeline(self, domain.GeneralRoom)
	var room *uuid.UUID

	if err := backfill(config, timeline, room); err != nil {
		return exitRuntime, err
	}
	render(timeline)

	color.Green.Printf(">>> Connected to %s as %s! (Ctrl+C to quit, /join <group|general>, /history)\n",
		config.ServerAddress, self.DisplayName)

	// Reception loop: live messages and send acks both land in the timeline.
	go func() {
		defer stop()
		for {
			var frame inboundFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() == nil {
					color.Red.Printf("stream error: %v\n", err)
				}
				return
			}
			switch frame.Type {
			case "message":
				msg := toMessage(*frame.Message)
				timeline.Observe(msg)
				if msg.SenderID != self.ID {
					printMessage(msg)
				}
			case "sent":
				timeline.Confirm(toMessage(*frame.Message))
			case "error":
				color.Red.Printf("rejected: %s\n", frame.Error)
			}
		}
	}()

	// Send loop.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return exitOK, nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/history":
			render(timeline)
		case strings.HasPrefix(line, "/join "):
			target, err := parseRoom(strings.TrimPrefix(line, "/join "))
			if err != nil {
				color.Red.Println(err)
				continue
			}
			room = target
			timeline.Reset(domain.RoomFor(room))
			if err := conn.WriteJSON(outboundFrame{Type: "join", Group: room}); err != nil {
				return exitRuntime, err
			}
			if err := backfill(config, timeline, room); err != nil {
				color.Red.Println(err)
			}
			render(timeline)
		default:
			timeline.PostLocal(line, room)
			if err := conn.WriteJSON(outboundFrame{Type: "send", Content: line, Group: room}); err != nil {
				return exitRuntime, err
			}
		}
	}
	return exitOK, nil
}

// backfill loads the selected room's persisted history over the REST API.
func backfill(config Config, timeline *projection.Timeline, room *uuid.UUID) error {
	url := fmt.Sprintf("http://%s/api/messages", config.ServerAddress)
	if room != nil {
		url += "?group=" + room.String()
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+config.Token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("history fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history fetch failed: %s", resp.Status)
	}

	var payloads []messagePayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return err
	}
	messages := make([]domain.Message, 0, len(payloads))
	for _, p := range payloads {
		messages = append(messages, toMessage(p))
	}
	timeline.Backfill(messages)
	return nil
}

func parseRoom(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "general" || raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("not a group id: %q", raw)
	}
	return &parsed, nil
}

func render(timeline *projection.Timeline) {
	for _, entry := range timeline.Entries() {
		if entry.State == projection.Pending {
			color.Gray.Printf("[pending] %s: %s\n", entry.Message.SenderName, entry.Message.Content)
			continue
		}
		printMessage(entry.Message)
	}
}

func printMessage(msg domain.Message) {
	color.Cyan.Printf("[%s] ", msg.CreatedAt.Format(time.TimeOnly))
	color.Bold.Printf("%s: ", msg.SenderName)
	fmt.Println(msg.Content)
}

func toMessage(p messagePayload) domain.Message {
	return domain.Message{
		ID:         p.ID,
		SenderID:   p.SenderID,
		SenderName: p.SenderName,
		Content:    p.Content,
		GroupID:    p.GroupID,
		CreatedAt:  p.CreatedAt,
	}
}
