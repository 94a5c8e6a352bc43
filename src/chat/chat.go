package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/troydota/lotr-quotes/src/utils"

	"github.com/gorilla/websocket"
)

// IRC posts messages to Twitch chat over the websocket IRC gateway. Each Send
// opens its own session, authenticates, delivers one PRIVMSG and disconnects.
type IRC struct {
	url string
}

func NewIRC(url string) *IRC {
	return &IRC{url: url}
}

func (i *IRC) Send(ctx context.Context, username string, channel string, text string, accessToken string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, i.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	var writeMu sync.Mutex
	write := func(line string) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, utils.S2B(line))
	}

	// the gateway sends keep-alive pings even during a short session
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(utils.B2S(data), "PING :tmi.twitch.tv") {
				if err := write("PONG :tmi.twitch.tv"); err != nil {
					return
				}
			}
		}
	}()

	lines := []string{
		fmt.Sprintf("PASS oauth:%s", accessToken),
		fmt.Sprintf("NICK %s", username),
		fmt.Sprintf("JOIN #%s", channel),
		fmt.Sprintf("PRIVMSG #%s :%s", channel, text),
	}
	for _, line := range lines {
		if err := write(line); err != nil {
			return err
		}
	}

	writeMu.Lock()
	err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	writeMu.Unlock()
	if err != nil {
		return err
	}

	// wait for the close handshake so a ping in flight still gets its pong
	select {
	case <-done:
	case <-ctx.Done():
	}

	return nil
}
