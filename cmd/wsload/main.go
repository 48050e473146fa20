// Package main load-tests the notification websocket: many streams watch one
// account while a second account generates follow and like events.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the run's results.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsTriggered      int64
	FramesReceived       int64
	Notifications        int64
	Errors               int64
}

var metrics Metrics

type frame struct {
	Type string `json:"type"`
}

type client struct {
	host  string
	http  *http.Client
	token string
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	watcher := flag.String("watcher", "", "username whose notifications are streamed")
	actor := flag.String("actor", "", "username that generates events")
	password := flag.String("password", "SeedPassword123", "password of both accounts")
	postID := flag.Uint("post", 0, "post by the watcher for the actor to like/unlike (optional)")
	clients := flag.Int("clients", 20, "number of concurrent streams")
	interval := flag.Duration("interval", 2*time.Second, "time between generated events")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	if *watcher == "" || *actor == "" {
		fmt.Fprintln(os.Stderr, "usage: wsload -watcher <username> -actor <username> [flags]")
		os.Exit(2)
	}

	log.Printf("target=%s clients=%d duration=%v", *host, *clients, *duration)

	watch, err := login(*host, *watcher, *password)
	if err != nil {
		log.Fatalf("watcher login failed: %v", err)
	}
	act, err := login(*host, *actor, *password)
	if err != nil {
		log.Fatalf("actor login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go stream(*host, watch.token, stop, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	wg.Add(1)
	go generate(act, *watcher, *postID, *interval, stop, &wg)

	select {
	case <-time.After(*duration):
		log.Println("test duration reached")
	case <-interrupt:
		log.Println("interrupted")
	}

	close(stop)
	wg.Wait()
	printMetrics(*clients)
}

func login(host, username, password string) (*client, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Timeout: 5 * time.Second}
	resp, err := hc.Post(fmt.Sprintf("http://%s/api/users/login", host), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed with status %d", resp.StatusCode)
	}
	var result struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &client{host: host, http: hc, token: result.Access}, nil
}

func (c *client) do(method, path string) (int, error) {
	req, err := http.NewRequest(method, fmt.Sprintf("http://%s/api%s", c.host, path), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// generate alternates follow/unfollow (and like/unlike when a post is given)
// so every other tick produces a notification for the watcher.
func generate(c *client, watcher string, postID uint, interval time.Duration, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		var paths [][2]string
		if tick%2 == 0 {
			paths = append(paths, [2]string{http.MethodPost, "/users/follow/" + watcher})
			if postID != 0 {
				paths = append(paths, [2]string{http.MethodPost, fmt.Sprintf("/posts/like/%d", postID)})
			}
		} else {
			paths = append(paths, [2]string{http.MethodDelete, "/users/unfollow/" + watcher})
			if postID != 0 {
				paths = append(paths, [2]string{http.MethodDelete, fmt.Sprintf("/posts/unlike/%d", postID)})
			}
		}

		for _, p := range paths {
			status, err := c.do(p[0], p[1])
			if err != nil || status >= http.StatusBadRequest {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			if status == http.StatusCreated {
				atomic.AddInt64(&metrics.EventsTriggered, 1)
			}
		}
	}
}

func stream(host, token string, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.FramesReceived, 1)
			var f frame
			if json.Unmarshal(raw, &f) == nil && f.Type == "notification" {
				atomic.AddInt64(&metrics.Notifications, 1)
			}
		}
	}()

	select {
	case <-stop:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

func printMetrics(clients int) {
	log.Println("results")
	log.Printf("connections attempted:  %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("connections successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("connections failed:     %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("events triggered:       %d", atomic.LoadInt64(&metrics.EventsTriggered))
	log.Printf("frames received:        %d", atomic.LoadInt64(&metrics.FramesReceived))
	log.Printf("notifications received: %d", atomic.LoadInt64(&metrics.Notifications))
	if events := atomic.LoadInt64(&metrics.EventsTriggered); events > 0 && clients > 0 {
		log.Printf("delivery ratio:         %.2f", float64(atomic.LoadInt64(&metrics.Notifications))/float64(events*int64(clients)))
	}
	log.Printf("errors:                 %d", atomic.LoadInt64(&metrics.Errors))
}
