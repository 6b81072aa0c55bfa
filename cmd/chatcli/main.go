package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"canaccesible/pkg/chatclient"
)

// chatcli is a terminal chat view: it loads history over REST, joins the
// conversation channel on the gateway, and prints live updates. Lines typed
// on stdin are sent as messages; they appear only when the server's own
// newMessage broadcast comes back.
func main() {
	baseURL := flag.String("url", "http://localhost:5000", "API base URL")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "bearer token from /login")
	convID := flag.Uint("conv", 0, "conversation id")
	flag.Parse()

	if *token == "" || *convID == 0 {
		log.Fatal("usage: chatcli -conv <id> -token <jwt> [-url http://host:port]")
	}

	viewer, err := chatclient.ViewerFromToken(*token)
	if err != nil {
		log.Fatalf("cannot decode token: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &chatclient.Client{
		BaseURL:        *baseURL,
		Token:          *token,
		ConversationID: uint(*convID),
	}
	client.OnError = func(msg string) {
		fmt.Fprintf(os.Stderr, "! %s\n", msg)
	}

	var shown []string
	client.OnChange = func(msgs []chatclient.Message) {
		if needsRefresh(shown, msgs) {
			fmt.Println("--- conversation updated ---")
			shown = shown[:0]
		}
		for _, m := range msgs[len(shown):] {
			printMessage(viewer, m)
		}
		shown = shown[:0]
		for _, m := range msgs {
			shown = append(shown, m.Body)
		}
	}

	if err := client.History(ctx); err != nil {
		log.Fatalf("history fetch failed: %v", err)
	}

	go func() {
		if err := client.Connect(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("gateway connection lost: %v", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		if err := client.Send(line); err != nil {
			fmt.Fprintf(os.Stderr, "! send failed: %v\n", err)
		}
	}
}

// needsRefresh reports whether the already-printed prefix is stale: a message
// was deleted, or an earlier line's body changed through an edit. Appends
// alone never force a reprint.
func needsRefresh(shown []string, msgs []chatclient.Message) bool {
	if len(msgs) < len(shown) {
		return true
	}
	for i := range shown {
		if msgs[i].Body != shown[i] {
			return true
		}
	}
	return false
}

func printMessage(viewer chatclient.Viewer, m chatclient.Message) {
	name := strings.TrimSpace(m.Sender.FirstName + " " + m.Sender.LastName)
	when := m.DateMessage.Format("15:04")
	if chatclient.RightAligned(viewer, m) {
		fmt.Printf("%50s  [%s %s]\n", m.Body, name, when)
		return
	}
	fmt.Printf("[%s %s]  %s\n", name, when, m.Body)
}
